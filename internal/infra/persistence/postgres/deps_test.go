package postgres

import (
	"testing"

	"erpcore/testutil"
)

func TestImportsAreStoreContractOrStdlib(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.ModuleImportsExcept("erpcore/internal/blob/core", "erpcore/internal/infra/persistence/sqlstore"),
		"postgres backend depends on the store contract only")
}
