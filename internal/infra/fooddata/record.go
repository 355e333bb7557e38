package fooddata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

// RawFood is a USDA FoodData Central record as found in the search and
// detail API responses and the bulk downloads.
type RawFood struct {
	FDCID               int            `json:"fdcId"`
	Description         string         `json:"description"`
	DataType            string         `json:"dataType"`
	FoodCategory        category       `json:"foodCategory"`
	BrandedFoodCategory string         `json:"brandedFoodCategory"`
	BrandName           string         `json:"brandName"`
	BrandOwner          string         `json:"brandOwner"`
	Ingredients         string         `json:"ingredients"`
	ServingSize         float64        `json:"servingSize"`
	ServingSizeUnit     string         `json:"servingSizeUnit"`
	FoodNutrients       []foodNutrient `json:"foodNutrients"`
}

// category is either a plain string or an object with a description.
type category string

func (c *category) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = category(s)
		return nil
	}
	var obj struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = category(obj.Description)
	return nil
}

// foodNutrient covers the flat search shape and the nested detail shape.
type foodNutrient struct {
	NutrientName string   `json:"nutrientName"`
	UnitName     string   `json:"unitName"`
	Value        *float64 `json:"value"`
	Amount       *float64 `json:"amount"`
	Nutrient     *struct {
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
}

func (n foodNutrient) name() string {
	if n.Nutrient != nil && n.Nutrient.Name != "" {
		return n.Nutrient.Name
	}
	return n.NutrientName
}

func (n foodNutrient) unit() string {
	if n.Nutrient != nil && n.Nutrient.UnitName != "" {
		return n.Nutrient.UnitName
	}
	return n.UnitName
}

func (n foodNutrient) amount() (float64, bool) {
	switch {
	case n.Amount != nil:
		return *n.Amount, true
	case n.Value != nil:
		return *n.Value, true
	}
	return 0, false
}

// nutrientValue returns the first nutrient whose name contains key. When
// unit is set, entries with a different unit are skipped.
func nutrientValue(nutrients []foodNutrient, key, unit string) (float64, bool) {
	key = strings.ToLower(key)
	for _, n := range nutrients {
		if !strings.Contains(strings.ToLower(n.name()), key) {
			continue
		}
		if unit != "" && n.unit() != "" && !strings.EqualFold(n.unit(), unit) {
			continue
		}
		if v, ok := n.amount(); ok {
			return v, true
		}
	}
	return 0, false
}

// ErrNoCalories marks records skipped because they carry no energy value.
var ErrNoCalories = errors.New("food has no calorie information")

// Process converts a raw record into a stored food with search text.
func Process(raw RawFood) (nutrition.Food, error) {
	if raw.FDCID <= 0 {
		return nutrition.Food{}, fmt.Errorf("invalid fdcId %d", raw.FDCID)
	}
	calories, ok := nutrientValue(raw.FoodNutrients, "energy", "kcal")
	if !ok || calories == 0 {
		return nutrition.Food{}, ErrNoCalories
	}
	protein, _ := nutrientValue(raw.FoodNutrients, "protein", "")
	carbs, _ := nutrientValue(raw.FoodNutrients, "carbohydrate", "")
	fat, _ := nutrientValue(raw.FoodNutrients, "total lipid", "")
	fiber, _ := nutrientValue(raw.FoodNutrients, "fiber", "")
	sugar, _ := nutrientValue(raw.FoodNutrients, "total sugars", "")

	cat := string(raw.FoodCategory)
	if cat == "" {
		cat = raw.BrandedFoodCategory
	}
	brand := raw.BrandName
	if brand == "" {
		brand = raw.BrandOwner
	}
	description := strings.TrimSpace(raw.Description)
	if description == "" {
		description = "Unknown"
	}
	servingSize, servingUnit := raw.ServingSize, raw.ServingSizeUnit
	if servingSize <= 0 {
		// nutrient amounts in non-branded records are per 100 g
		servingSize, servingUnit = 100, "g"
	}

	parts := []string{description, cat, raw.BrandName, raw.BrandOwner, raw.Ingredients, raw.DataType}
	if protein > 20 {
		parts = append(parts, "high protein")
	}
	// absent or zero values never earn a "low" tag
	if fat > 0 && fat < 5 {
		parts = append(parts, "low fat")
	}
	if carbs > 0 && carbs < 10 {
		parts = append(parts, "low carb")
	}
	if fiber > 5 {
		parts = append(parts, "high fiber")
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}

	return nutrition.Food{
		ID:              fmt.Sprintf("fdc_%d", raw.FDCID),
		FDCID:           raw.FDCID,
		Description:     description,
		Category:        cat,
		DataType:        raw.DataType,
		BrandOwner:      brand,
		Ingredients:     raw.Ingredients,
		SearchText:      strings.ToLower(strings.Join(nonEmpty, " ")),
		ServingSize:     servingSize,
		ServingSizeUnit: servingUnit,
		Calories:        calories,
		Protein:         protein,
		Carbs:           carbs,
		Fat:             fat,
		Fiber:           fiber,
		Sugar:           sugar,
	}, nil
}

// DecodeRecords accepts a single record, an array of records, or a bulk
// download object wrapping one array (for example {"FoundationFoods":[...]}).
func DecodeRecords(data []byte) ([]RawFood, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}
	switch data[0] {
	case '[':
		var out []RawFood
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode food array: %w", err)
		}
		return out, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("decode food object: %w", err)
		}
		if _, ok := probe["fdcId"]; ok {
			var one RawFood
			if err := json.Unmarshal(data, &one); err != nil {
				return nil, fmt.Errorf("decode food: %w", err)
			}
			return []RawFood{one}, nil
		}
		for key, raw := range probe {
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || trimmed[0] != '[' {
				continue
			}
			var out []RawFood
			if err := json.Unmarshal(trimmed, &out); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			return out, nil
		}
		return nil, errors.New("object has neither fdcId nor a record array")
	default:
		return nil, errors.New("document is not a JSON object or array")
	}
}
