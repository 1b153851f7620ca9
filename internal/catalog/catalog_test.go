package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	bs := Default()
	require.Len(t, bs, 6)

	for _, b := range bs {
		assert.NotEmpty(t, b.ID)
		assert.Len(t, b.Coupons, 3)
		for _, c := range b.Coupons {
			assert.Positive(t, c.Points)
		}
	}

	bs[0].Coupons[0].Points = 1
	assert.Equal(t, 15, Default()[0].Coupons[0].Points, "Default must return a copy")
}

func TestFilterByCategory(t *testing.T) {
	bs := Default()

	assert.Len(t, FilterByCategory(bs, ""), 6)
	assert.Len(t, FilterByCategory(bs, "all"), 6)

	food := FilterByCategory(bs, "food")
	require.Len(t, food, 2)
	assert.Equal(t, "biz_002", food[0].ID)
	assert.Equal(t, "biz_005", food[1].ID)

	assert.Empty(t, FilterByCategory(bs, "electronics"))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"all", "fashion", "food", "transport", "household"}, Categories(Default()))
	assert.Equal(t, []string{"all"}, Categories(nil))
}

func TestFind(t *testing.T) {
	bs := Default()

	b, ok := Find(bs, "biz_003")
	require.True(t, ok)
	assert.Equal(t, "EcoCycle Bike Shop", b.Name)

	offer, ok := FindOffer(b, 100)
	require.True(t, ok)
	assert.Equal(t, "30% off refurbished bike", offer.Discount)

	_, ok = FindOffer(b, 99)
	assert.False(t, ok)

	_, ok = Find(bs, "biz_999")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		wantLen int
	}{
		{
			name: "valid",
			content: `
businesses:
  - id: biz_100
    name: Corner Bakery
    category: food
    location: Old Town
    sustainability_practices: Day-old bread donated
    coupons:
      - points: 10
        discount: Free bun
        tier: bronze
`,
			wantLen: 1,
		},
		{
			name:    "empty",
			content: "businesses: []\n",
			wantErr: true,
		},
		{
			name: "missing id",
			content: `
businesses:
  - name: Nameless
`,
			wantErr: true,
		},
		{
			name: "duplicate id",
			content: `
businesses:
  - id: a
  - id: a
`,
			wantErr: true,
		},
		{
			name: "free offer",
			content: `
businesses:
  - id: a
    coupons:
      - points: 0
        discount: Everything
`,
			wantErr: true,
		},
		{
			name:    "not yaml",
			content: "businesses: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			bs, err := LoadFile(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, bs, tt.wantLen)
			assert.Equal(t, "Day-old bread donated", bs[0].SustainabilityPractices)
			assert.Equal(t, 10, bs[0].Coupons[0].Points)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
