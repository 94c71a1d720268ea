package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestDefault_Resolve(t *testing.T) {
	c := Default()
	p, err := c.Resolve("cir_01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Extração Dentária Simples" {
		t.Errorf("Name = %q", p.Name)
	}
	if _, err := c.Resolve("nope"); !errors.Is(err, ErrUnknownProcedure) {
		t.Errorf("expected ErrUnknownProcedure, got %v", err)
	}
}

func TestDefault_ListOrderAndGroups(t *testing.T) {
	c := Default()
	list := c.List()
	if len(list) != 40 {
		t.Fatalf("expected 40 procedures, got %d", len(list))
	}
	if list[0].ID != "prof_01" || list[len(list)-1].ID != "outros_03" {
		t.Errorf("unexpected order: first %s last %s", list[0].ID, list[len(list)-1].ID)
	}
	list[0].Name = "changed"
	if c.List()[0].Name == "changed" {
		t.Error("List must return a copy")
	}
	if n := len(c.Groups()["Endodontia"]); n != 6 {
		t.Errorf("Endodontia has %d procedures, want 6", n)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"duplicate":    "procedures:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
		"missing id":   "procedures:\n  - {name: A}\n",
		"missing name": "procedures:\n  - {id: a}\n",
		"bad yaml":     "procedures: [",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("procedures:\n  - {id: x_01, name: Custom}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.Resolve("x_01"); err != nil {
		t.Errorf("Resolve: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHandler_ListProcedures(t *testing.T) {
	h := NewHandler(Default())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?group=Ortodontia", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListProcedures(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []Procedure
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 procedures, got %d", len(got))
	}
}

func TestHandler_GetProcedure_NotFound(t *testing.T) {
	h := NewHandler(Default())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("zzz")

	err := h.GetProcedure(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
