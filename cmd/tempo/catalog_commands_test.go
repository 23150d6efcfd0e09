package main

import (
	"strings"
	"testing"

	"tempo/internal/testsupport"
)

const showTestCatalog = `sources:
  genie:
    scraper: genie
    url: https://example.com/song/{id}
    selectors:
      total_plays: "div.total"
    items:
      - id: "100"
        name: "Spring Day"
      - id: "200"
  bugs:
    enabled: false
    url: https://example.com/track/{id}
    items:
      - id: "300"
`

func TestCatalogShow(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCatalog(t, env.cfg, showTestCatalog)

	out, _, err := runCLI(t, []string{"catalog", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	requireContains(t, out, "genie")
	requireContains(t, out, "bugs")
	requireContains(t, out, "Spring Day")
	requireContains(t, out, "300")

	// The disabled source still lists, flagged as such.
	if !strings.Contains(out, "no") {
		t.Fatalf("expected disabled marker in output: %q", out)
	}
}

func TestCatalogValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCatalog(t, env.cfg, showTestCatalog)

	out, _, err := runCLI(t, []string{"catalog", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog validate: %v", err)
	}
	requireContains(t, out, "Catalog valid: 2 sources, 3 items")
}

func TestCatalogValidateRejectsBadURL(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCatalog(t, env.cfg, `sources:
  genie:
    url: https://example.com/song/no-placeholder
    items:
      - id: "100"
`)

	_, _, err := runCLI(t, []string{"catalog", "validate"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "{id}") {
		t.Fatalf("expected placeholder error, got %v", err)
	}
}
