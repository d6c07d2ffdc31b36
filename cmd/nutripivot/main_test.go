package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/nutripivot/internal/core"
)

var sources = map[string]string{
	"Products.csv": `NDB_Number,long_name,data_source,gtin_upc,manufacturer,date_modified,date_available,ingredients_english
1,Granola,LI,0001,Acme,2017-01-01,2017-01-01,OATS
2,Water,LI,0002,Acme,2017-01-01,2017-01-01,WATER
`,
	"Serving_size.csv": `NDB_No,Serving_Size,Serving_Size_UOM,Household_Serving_Size,Household_Serving_Size_UOM,Preparation_State
1,55,g,0.5,cup,
2,240,ml,1,cup,
`,
	"Nutrients.csv": `NDB_No,Nutrient_Code,Nutrient_name,Derivation_Code,Output_value,Output_uom
1,208,Energy,LCCS,450,kcal
1,205,Carbohydrate,LCCS,64,g
1,204,Total lipid (fat),LCCS,18,g
1,203,Protein,LCCS,9,g
2,208,Energy,LCCS,0,kcal
`,
	"Derivation_Code_Description.csv": `Derivation_Code,Derivation_Description
LCCS,Calculated from value per serving size measure
`,
}

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range sources {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	if err != nil {
		t.Fatalf("schema error = %v", err)
	}
	for _, s := range []string{
		"CREATE TABLE nutrients (",
		"CREATE TABLE products (",
		"CREATE TABLE serving (",
		"CREATE TABLE derivations (",
		"CREATE TABLE final_products (",
		"CREATE INDEX IF NOT EXISTS idx_nutrients_food_code",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("schema output missing %q", s)
		}
	}
}

func TestRunCommand(t *testing.T) {
	t.Setenv("PUBLISH_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	dir := writeInputs(t)
	output := filepath.Join(t.TempDir(), "out", "final_products.json")

	out, err := execute(t, "run", "--input-dir", dir, "--output", output, "--no-snapshot")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(out, "final_products") {
		t.Errorf("reconciliation table not printed:\n%s", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	var ids []float64
	for _, p := range got {
		ids = append(ids, p["id"].(float64))
	}
	if diff := cmp.Diff([]float64{1}, ids); diff != "" {
		t.Errorf("published ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCommand_Quiet(t *testing.T) {
	t.Setenv("PUBLISH_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("INPUT_DIR", writeInputs(t))
	t.Setenv("OUTPUT_JSON", filepath.Join(t.TempDir(), "final_products.json"))
	t.Setenv("SNAPSHOT_PATH", filepath.Join(t.TempDir(), "nutr.sqlite"))

	out, err := execute(t, "-q")
	if err != nil {
		t.Fatalf("default command error = %v", err)
	}
	if out != "" {
		t.Errorf("quiet run printed output:\n%s", out)
	}
}

func TestRunCommand_MissingInput(t *testing.T) {
	t.Setenv("PUBLISH_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "run", "--input-dir", t.TempDir(), "--output", filepath.Join(t.TempDir(), "x.json"), "--no-snapshot")
	if err == nil {
		t.Fatal("expected error for empty input directory")
	}
}

func TestRunCommand_NoPublishOverridesEnv(t *testing.T) {
	t.Setenv("PUBLISH_DATABASE_URL", "postgres://localhost:1/unused")
	t.Setenv("DB_MAX_CONNS", "0")
	t.Setenv("LOG_LEVEL", "error")

	dir := writeInputs(t)
	output := filepath.Join(t.TempDir(), "final_products.json")

	if _, err := execute(t, "run", "--input-dir", dir, "--output", output, "--no-snapshot"); err == nil {
		t.Fatal("expected validation error for DB_MAX_CONNS=0 with publication enabled")
	}
	if _, err := execute(t, "run", "--input-dir", dir, "--output", output, "--no-snapshot", "--no-publish"); err != nil {
		t.Fatalf("run --no-publish error = %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestUserError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		detail bool
	}{
		{"coded error hides detail", &core.ConsistencyError{Check: "row count products", Want: 5, Got: 4}, false},
		{"uncoded error shows detail", errors.New("disk quota exceeded"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userError(tt.err)
			if !strings.HasPrefix(got, core.FormatUserError(tt.err)) {
				t.Errorf("userError() = %q, want coded message prefix", got)
			}
			if strings.Contains(got, tt.err.Error()) != tt.detail {
				t.Errorf("userError() = %q, detail shown = %v, want %v", got, !tt.detail, tt.detail)
			}
		})
	}
}
