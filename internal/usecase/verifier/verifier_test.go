package verifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"vahan-scraper/internal/domain/entity"
	"vahan-scraper/internal/infrastructure/logger"
)

type cell struct {
	table string
	row   int
}

type fakeProber struct {
	checked map[cell]bool
	labels  map[cell]string
	probes  int
}

func (p *fakeProber) CheckCheckboxState(_ context.Context, table string, row int, _ string) bool {
	p.probes++
	return p.checked[cell{table, row}]
}

func (p *fakeProber) RowLabel(_ context.Context, table string, row int) string {
	return p.labels[cell{table, row}]
}

// fourItemTable has two fuel and two class rows expected for E2W.
func fourItemTable() *entity.FilterTable {
	return entity.NewFilterTable(entity.FilterTableConfig{
		FuelTable:  "fuel",
		ClassTable: "class",
		FuelRows:   6,
		ClassRows:  6,
		Selections: map[entity.ProductType]entity.FilterSelection{
			entity.ProductE2W: {
				Fuels:   []entity.FilterItem{{Key: "A", Label: "A", Row: 1}, {Key: "B", Label: "B", Row: 2}},
				Classes: []entity.FilterItem{{Key: "C", Label: "C", Row: 1}, {Key: "D", Label: "D", Row: 2}},
			},
		},
	})
}

func labelledProber() *fakeProber {
	p := &fakeProber{checked: map[cell]bool{}, labels: map[cell]string{}}
	for _, table := range []string{"fuel", "class"} {
		for row := 1; row <= 6; row++ {
			p.labels[cell{table, row}] = table + string(rune('0'+row))
		}
	}
	return p
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name                         string
		verified, expected, unwanted int
		rate                         float64
		pass                         bool
	}{
		{"three of four", 3, 4, 0, 0.75, true},
		{"two of four", 2, 4, 0, 0.5, false},
		{"all but noisy", 4, 4, 3, 1.0, false},
		{"tolerated noise", 4, 4, 2, 1.0, true},
		{"nothing expected", 0, 0, 0, 0, false},
		{"boundary", 7, 10, 0, 0.7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, pass := Verdict(tt.verified, tt.expected, tt.unwanted)
			assert.InDelta(t, tt.rate, rate, 1e-9)
			assert.Equal(t, tt.pass, pass)
		})
	}
}

func TestVerdict_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		expected := rapid.IntRange(0, 100).Draw(t, "expected")
		verified := rapid.IntRange(0, expected).Draw(t, "verified")
		unwanted := rapid.IntRange(0, 50).Draw(t, "unwanted")

		rate, pass := Verdict(verified, expected, unwanted)
		if rate < 0 || rate > 1 {
			t.Fatalf("rate %f out of range", rate)
		}
		if unwanted > MaxUnwanted && pass {
			t.Fatalf("passed with %d unwanted", unwanted)
		}
		if expected == 0 && pass {
			t.Fatal("passed with nothing expected")
		}
		if pass {
			if _, morePass := Verdict(min(verified+1, expected), expected, unwanted); !morePass {
				t.Fatal("verdict not monotonic in verified count")
			}
		}
	})
}

func TestVerify_ThreeOfFour(t *testing.T) {
	p := labelledProber()
	p.checked[cell{"fuel", 1}] = true
	p.checked[cell{"fuel", 2}] = true
	p.checked[cell{"class", 1}] = true

	ok, report := New(fourItemTable(), p, logger.NewNop()).Verify(context.Background(), entity.ProductE2W)

	assert.True(t, ok)
	assert.InDelta(t, 0.75, report.SuccessRate, 1e-9)
	assert.Equal(t, []string{"A", "B"}, report.Fuel.Verified)
	assert.Equal(t, []string{"D"}, report.VehicleClasses.Failed)
	assert.Zero(t, report.UnwantedCount)
}

func TestVerify_TwoOfFour(t *testing.T) {
	p := labelledProber()
	p.checked[cell{"fuel", 1}] = true
	p.checked[cell{"class", 2}] = true

	ok, report := New(fourItemTable(), p, logger.NewNop()).Verify(context.Background(), entity.ProductE2W)

	assert.False(t, ok)
	assert.InDelta(t, 0.5, report.SuccessRate, 1e-9)
}

func TestVerify_TooManyUnwanted(t *testing.T) {
	p := labelledProber()
	for _, c := range []cell{{"fuel", 1}, {"fuel", 2}, {"class", 1}, {"class", 2}, {"fuel", 3}, {"fuel", 5}, {"class", 6}} {
		p.checked[c] = true
	}

	ok, report := New(fourItemTable(), p, logger.NewNop()).Verify(context.Background(), entity.ProductE2W)

	assert.False(t, ok)
	assert.InDelta(t, 1.0, report.SuccessRate, 1e-9)
	assert.Equal(t, 3, report.UnwantedCount)
	assert.Equal(t, []string{"fuel3", "fuel5"}, report.Fuel.Unwanted)
	assert.Equal(t, []string{"class6"}, report.VehicleClasses.Unwanted)
}

func TestVerify_UnlabelledRowsAreNotProbed(t *testing.T) {
	p := &fakeProber{checked: map[cell]bool{{"fuel", 4}: true}, labels: map[cell]string{}}

	_, report := New(fourItemTable(), p, logger.NewNop()).Verify(context.Background(), entity.ProductE2W)

	assert.Zero(t, report.UnwantedCount)
	assert.Equal(t, 4, p.probes)
}

func TestVerify_UnknownProduct(t *testing.T) {
	ok, report := New(fourItemTable(), labelledProber(), logger.NewNop()).Verify(context.Background(), entity.ProductICE)

	assert.False(t, ok)
	require.NotNil(t, report)
	assert.Equal(t, entity.ProductICE, report.Product)
}

func TestVerify_DefaultTableAllSelected(t *testing.T) {
	table := entity.DefaultFilterTable()
	for _, product := range entity.AllProducts() {
		sel, err := table.Selection(product)
		require.NoError(t, err)

		p := &fakeProber{checked: map[cell]bool{}, labels: map[cell]string{}}
		for _, f := range sel.Fuels {
			p.checked[cell{table.FuelTable(), f.Row}] = true
		}
		for _, c := range sel.Classes {
			p.checked[cell{table.ClassTable(), c.Row}] = true
		}

		ok, report := New(table, p, logger.NewNop()).Verify(context.Background(), product)
		assert.True(t, ok, product)
		assert.InDelta(t, 1.0, report.SuccessRate, 1e-9)
	}
}
