package core

import (
	"testing"

	"erpcore/testutil"
)

func TestCoreDependsOnDomainOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportsExcept("erpcore/pkg/domain"),
		"the entity store must not depend on persistence")
}
