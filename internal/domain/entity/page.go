package entity

// ElementState is what the browser reports about a single element.
type ElementState struct {
	Class       string
	ParentClass string
	AriaChecked string
	Checked     bool
	Text        string
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
