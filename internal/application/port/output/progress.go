package output

import "vahan-scraper/internal/domain/entity"

// ProgressStore is a durable task-status map. Update persists before it
// returns; a persistence error is reported but the in-memory state stays.
type ProgressStore interface {
	Status(id entity.TaskID) entity.TaskStatus
	Record(id entity.TaskID) (entity.ProgressRecord, bool)
	Update(id entity.TaskID, status entity.TaskStatus, details *entity.RecordDetails) error
	Summary() map[entity.TaskStatus]int
	Clear() error
}
