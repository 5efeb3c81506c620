package testutil

import (
	"sync"
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/stretchr/testify/assert"
)

func TestCountingFactory_CountsPerMethod(t *testing.T) {
	f := NewCountingFactory(nil)

	path := f.Primary(nil, []string{"e", "name"})
	f.Dyadic(queryir.OpEq, path, f.Literal(ir.IRString("Ann")))
	f.Literal(ir.IRInt(1))

	assert.Equal(t, 1, f.Calls("Primary"))
	assert.Equal(t, 1, f.Calls("Dyadic"))
	assert.Equal(t, 2, f.Calls("Literal"))
	assert.Equal(t, 0, f.Calls("Invoke"))
	assert.Equal(t, 4, f.Total())
	assert.Equal(t, map[string]int{"Primary": 1, "Dyadic": 1, "Literal": 2}, f.Snapshot())
}

func TestCountingFactory_Delegates(t *testing.T) {
	f := NewCountingFactory(queryir.DefaultFactory{})

	got := f.Primary(f.Class("e"), []string{"city"})

	assert.Equal(t, queryir.KindComposite, got.Kind())
	assert.Equal(t, &queryir.ClassExpr{Alias: "e"}, got.Left)
}

func TestCountingFactory_Reset(t *testing.T) {
	f := NewCountingFactory(nil)
	f.Variable("SUB1")
	f.Reset()

	assert.Equal(t, 0, f.Total())
}

func TestCountingFactory_ThreadSafe(t *testing.T) {
	f := NewCountingFactory(nil)
	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				f.Class("e")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, f.Calls("Class"))
}
