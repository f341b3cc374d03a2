package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProductsTable(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	out, err := execute("--db", db, "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Apples")
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "IN_STOCK")
	assert.Contains(t, out, "6 products")
}

func TestCreateAdmin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	_, err := execute("--db", db, "create-admin", "--email", "ops@supermart.test", "--username", "Ops", "--password", "weak")
	assert.Error(t, err)

	out, err := execute("--db", db, "create-admin", "--email", "ops@supermart.test", "--username", "Ops", "--password", "Op5!secret")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin ops@supermart.test")

	_, err = execute("--db", db, "create-admin", "--email", "ops@supermart.test", "--username", "Ops", "--password", "Op5!secret")
	assert.Error(t, err, "email already taken")
}

func TestPaymentsEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	_, err := execute("--db", db, "payments", "--user", "u-alice")
	require.NoError(t, err)
}
