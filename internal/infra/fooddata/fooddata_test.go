package fooddata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-fitcoach/internal/infra/embedder"
	"github.com/yanqian/ai-fitcoach/internal/infra/foodstore"
)

const detailRecord = `{
  "fdcId": 171077,
  "description": "Chicken, broilers or fryers, breast, meat only, cooked, roasted",
  "dataType": "SR Legacy",
  "foodCategory": {"id": 5, "description": "Poultry Products"},
  "foodNutrients": [
    {"nutrient": {"name": "Energy", "unitName": "kJ"}, "amount": 690},
    {"nutrient": {"name": "Energy", "unitName": "kcal"}, "amount": 165},
    {"nutrient": {"name": "Protein", "unitName": "g"}, "amount": 31.02},
    {"nutrient": {"name": "Total lipid (fat)", "unitName": "g"}, "amount": 3.57},
    {"nutrient": {"name": "Carbohydrate, by difference", "unitName": "g"}, "amount": 0}
  ]
}`

const brandedRecord = `{
  "fdcId": 2041155,
  "description": "ROLLED OATS",
  "dataType": "Branded",
  "brandedFoodCategory": "Cereal",
  "brandOwner": "Quaker",
  "ingredients": "WHOLE GRAIN ROLLED OATS",
  "servingSize": 40,
  "servingSizeUnit": "g",
  "foodNutrients": [
    {"nutrientName": "Energy", "unitName": "KCAL", "value": 150},
    {"nutrientName": "Protein", "unitName": "G", "value": 5},
    {"nutrientName": "Total lipid (fat)", "unitName": "G", "value": 2.5},
    {"nutrientName": "Carbohydrate, by difference", "unitName": "G", "value": 27},
    {"nutrientName": "Fiber, total dietary", "unitName": "G", "value": 7.5},
    {"nutrientName": "Total Sugars", "unitName": "G", "value": 1}
  ]
}`

func TestProcess(t *testing.T) {
	t.Parallel()

	records, err := DecodeRecords([]byte(detailRecord))
	require.NoError(t, err)
	chicken, err := Process(records[0])
	require.NoError(t, err)
	require.Equal(t, "fdc_171077", chicken.ID)
	require.Equal(t, 165.0, chicken.Calories)
	require.Equal(t, 31.02, chicken.Protein)
	require.Equal(t, "Poultry Products", chicken.Category)
	require.Equal(t, 100.0, chicken.ServingSize)
	require.Equal(t, "g", chicken.ServingSizeUnit)
	require.Contains(t, chicken.SearchText, "high protein")
	require.Contains(t, chicken.SearchText, "low fat")
	require.NotContains(t, chicken.SearchText, "low carb")
	require.Equal(t, strings.ToLower(chicken.SearchText), chicken.SearchText)

	records, err = DecodeRecords([]byte(brandedRecord))
	require.NoError(t, err)
	oats, err := Process(records[0])
	require.NoError(t, err)
	require.Equal(t, "Cereal", oats.Category)
	require.Equal(t, "Quaker", oats.BrandOwner)
	require.Equal(t, 40.0, oats.ServingSize)
	require.Equal(t, 7.5, oats.Fiber)
	require.Equal(t, 1.0, oats.Sugar)
	require.Contains(t, oats.SearchText, "high fiber")
	require.Contains(t, oats.SearchText, "low fat")
	require.Contains(t, oats.SearchText, "whole grain rolled oats")
	require.NotContains(t, oats.SearchText, "high protein")
}

func TestProcessSkipsWithoutCalories(t *testing.T) {
	t.Parallel()
	_, err := Process(RawFood{FDCID: 1, Description: "Water"})
	require.ErrorIs(t, err, ErrNoCalories)

	_, err = Process(RawFood{Description: "No id"})
	require.Error(t, err)
}

func TestDecodeRecords(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "single", input: detailRecord, want: 1},
		{name: "array", input: "[" + detailRecord + "," + brandedRecord + "]", want: 2},
		{name: "bulk wrapper", input: `{"SRLegacyFoods":[` + detailRecord + `]}`, want: 1},
		{name: "empty", input: "  ", wantErr: true},
		{name: "scalar", input: "42", wantErr: true},
		{name: "object without records", input: `{"foo":"bar"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeRecords([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.want)
		})
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	t.Parallel()
	require.Equal(t, "acct.r2.cloudflarestorage.com", sanitizeEndpoint("https://acct.r2.cloudflarestorage.com/bucket"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint(" http://localhost:9000 "))
	require.Equal(t, "", sanitizeEndpoint(""))
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding api down")
}

func TestIngesterRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("a.json", detailRecord)
	write("b.json", "["+brandedRecord+`,{"fdcId": 5, "description": "Salt", "foodNutrients": []}]`)
	write("c.json", detailRecord)
	write("broken.json", "{not json")
	write("notes.txt", "ignored")

	index := foodstore.NewMemoryIndex()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingester := NewIngester(NewDirSource(dir), embedder.NewDeterministicEmbedder(16), index, 1, logger)

	stats, err := ingester.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{Documents: 4, Records: 4, Ingested: 2, Skipped: 2, Failed: 1}, stats)
	require.Equal(t, 2, index.Len())
}

func TestIngesterRunEmbedFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(detailRecord), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingester := NewIngester(NewDirSource(dir), failingEmbedder{}, foodstore.NewMemoryIndex(), 10, logger)

	_, err := ingester.Run(context.Background())
	require.ErrorContains(t, err, "embedding api down")
}
