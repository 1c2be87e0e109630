package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
items:
  - {sku: ipd, name: Super iPad, price: 549.99}
  - {sku: atv, name: Apple TV, price: 109.50}
  - {sku: vga, name: VGA adapter, price: 30.00}
rules:
  - name: 3 for 2 Apple TV
    batch: {sku: atv, qty: 3}
    receive: {sku: atv}
  - name: iPad launch price
    period: {start: 25/01/2020, end: 25/01/2021}
    bulk: {sku: ipd, qty: 4}
    receive: {sku: ipd, fixed: 499.99}
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))
	return path
}

func TestRunPrintsTotals(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, zerolog.Nop(), writeCatalog(t), "", []string{"atv", "atv", "atv", "vga"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "3 for 2 Apple TV")
	require.Contains(t, out.String(), "-109.50")
	require.Contains(t, out.String(), "249.00")
}

func TestRunHonoursDate(t *testing.T) {
	path := writeCatalog(t)
	skus := []string{"ipd", "ipd", "ipd", "ipd", "ipd"}

	var inPeriod bytes.Buffer
	require.NoError(t, run(&inPeriod, zerolog.Nop(), path, "01/06/2020", skus))
	require.Contains(t, inPeriod.String(), "2499.95")

	var outOfPeriod bytes.Buffer
	require.NoError(t, run(&outOfPeriod, zerolog.Nop(), path, "01/06/2022", skus))
	require.Contains(t, outOfPeriod.String(), "2749.95")
	require.NotContains(t, outOfPeriod.String(), "iPad launch price")
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, run(&out, zerolog.Nop(), "", "", nil))
	require.Error(t, run(&out, zerolog.Nop(), writeCatalog(t), "2020-06-01", nil))
	require.Error(t, run(&out, zerolog.Nop(), writeCatalog(t), "", []string{"nope"}))
}
