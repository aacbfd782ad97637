package memory

import (
	"testing"

	"github.com/code-payments/presale-server/pkg/code/data/sale/tests"
)

func TestSaleMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
