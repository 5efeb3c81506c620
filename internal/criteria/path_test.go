package criteria

import (
	"errors"
	"sync"
	"testing"

	"github.com/roach88/criteria/internal/metamodel"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup returns a builder over the fixture model, its counting factory,
// and an Employee root aliased "e".
func setup(t *testing.T) (*Builder, *testutil.CountingFactory, *Root) {
	t.Helper()
	f := testutil.NewCountingFactory(nil)
	b := New(testutil.FixtureModel(t), WithFactory(f), WithSessionID("test-session"))
	q := b.CreateQuery("Employee")
	root, err := q.FromAs("Employee", "e")
	require.NoError(t, err)
	return b, f, root
}

func mustGet(t *testing.T, from interface {
	GetByName(string) (*Path, error)
}, names ...string) *Path {
	t.Helper()
	var p *Path
	var err error
	for i, name := range names {
		if i == 0 {
			p, err = from.GetByName(name)
		} else {
			p, err = p.GetByName(name)
		}
		require.NoError(t, err, "navigate %s", name)
	}
	return p
}

func TestPath_SingleHop(t *testing.T) {
	_, _, root := setup(t)

	p := mustGet(t, root, "name")

	assert.Equal(t, &queryir.PrimaryExpr{Tuples: []string{"e", "name"}}, p.Lower())
	assert.Equal(t, "e.name", p.String())
}

func TestPath_FlattensAliasChain(t *testing.T) {
	_, _, root := setup(t)

	p := mustGet(t, root, "address", "geo", "lat")

	node, ok := p.Lower().(*queryir.PrimaryExpr)
	require.True(t, ok)
	assert.Nil(t, node.Left, "alias chains never nest")
	assert.Equal(t, []string{"e", "address", "geo", "lat"}, node.Tuples)
	assert.Equal(t, queryir.KindDottedPath, node.Kind())
	assert.Equal(t, "e.address.geo.lat", p.String())
}

func TestPath_LowerIsIdempotent(t *testing.T) {
	_, f, root := setup(t)
	p := mustGet(t, root, "address", "city")

	first := p.Lower()
	before := f.Snapshot()
	second := p.Lower()

	assert.Same(t, first, second)
	assert.Equal(t, before, f.Snapshot(), "second lowering constructs nothing")
	assert.Equal(t, 2, f.Calls("Primary"), "one node per step")
	assert.Equal(t, 1, f.Calls("Class"))
}

func TestPath_ParentLoweredOnce(t *testing.T) {
	_, f, root := setup(t)
	addr := mustGet(t, root, "address")
	city, err := addr.GetByName("city")
	require.NoError(t, err)
	zip, err := addr.GetByName("zip")
	require.NoError(t, err)

	city.Lower()
	zip.Lower()

	assert.Equal(t, 3, f.Calls("Primary"))
	assert.Equal(t, []string{"e", "address", "zip"}, zip.Lower().(*queryir.PrimaryExpr).Tuples)
}

func TestPath_ConcurrentLowerAgrees(t *testing.T) {
	_, _, root := setup(t)
	p := mustGet(t, root, "department", "location", "city")

	const goroutines = 32
	results := make([]queryir.Expr, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Lower()
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestPath_ComputedParentIsComposite(t *testing.T) {
	b, _, _ := setup(t)

	fn, err := b.Typed(b.Function("find_department", "Department"), "Department")
	require.NoError(t, err)
	p, err := fn.GetByName("name")
	require.NoError(t, err)

	node := p.Lower().(*queryir.PrimaryExpr)
	assert.Equal(t, queryir.KindComposite, node.Kind())
	assert.Same(t, fn.Lower(), node.Left)
	assert.Equal(t, []string{"name"}, node.Tuples)
	assert.Equal(t, "SQL_function('find_department').name", p.String())
}

func TestPath_CompositeParentNests(t *testing.T) {
	b, _, _ := setup(t)
	fn, err := b.Typed(b.Function("find_department", "Department"), "Department")
	require.NoError(t, err)

	loc, err := fn.GetByName("location")
	require.NoError(t, err)
	city, err := loc.GetByName("city")
	require.NoError(t, err)

	node := city.Lower().(*queryir.PrimaryExpr)
	assert.Same(t, loc.Lower(), node.Left)
	assert.Equal(t, []string{"city"}, node.Tuples)
	assert.Equal(t, "SQL_function('find_department').location.city", city.String())
}

func TestPath_TreatIsComposite(t *testing.T) {
	b, _, root := setup(t)

	mgr, err := b.Treat(root, "Manager")
	require.NoError(t, err)
	bonus, err := mgr.GetByName("bonus")
	require.NoError(t, err)

	node := bonus.Lower().(*queryir.PrimaryExpr)
	cast, ok := node.Left.(*queryir.DyadicExpr)
	require.True(t, ok)
	assert.Equal(t, queryir.OpCast, cast.Op)
	assert.Equal(t, &queryir.ClassExpr{Alias: "e"}, cast.Left)
	assert.Equal(t, []string{"bonus"}, node.Tuples)
	assert.Equal(t, "TREAT(e AS Manager).bonus", bonus.String())
}

func TestPath_RejectsBasicNavigation(t *testing.T) {
	_, f, root := setup(t)
	name := mustGet(t, root, "name")

	before := f.Snapshot()
	next, err := name.GetByName("length")

	require.Error(t, err)
	assert.Nil(t, next)
	assert.True(t, IsInvalidNavigation(err))
	assert.ErrorIs(t, err, ErrInvalidNavigation)
	assert.Equal(t, before, f.Snapshot(), "nothing is built or lowered")
}

func TestPath_RejectsBasicNavigationByDescriptor(t *testing.T) {
	b, _, root := setup(t)
	name := mustGet(t, root, "name")
	addr, err := b.Model().Type("Address")
	require.NoError(t, err)
	city, err := addr.Attribute("city")
	require.NoError(t, err)

	_, err = name.Get(city)
	assert.True(t, IsInvalidNavigation(err))
}

func TestPath_NoSuchAttribute(t *testing.T) {
	_, _, root := setup(t)

	_, err := root.GetByName("salaryy")

	require.Error(t, err)
	assert.True(t, IsNoSuchAttribute(err))
	assert.ErrorIs(t, err, metamodel.ErrNoSuchAttribute)
	assert.False(t, IsInvalidNavigation(err))
}

func TestPath_GetByDescriptor(t *testing.T) {
	b, _, root := setup(t)
	person, err := b.Model().Type("Person")
	require.NoError(t, err)
	dept, err := b.Model().Type("Department")
	require.NoError(t, err)

	inherited, err := person.Attribute("name")
	require.NoError(t, err)
	p, err := root.Get(inherited)
	require.NoError(t, err)
	assert.Equal(t, "e.name", p.String())

	foreign, err := dept.Attribute("budget")
	require.NoError(t, err)
	_, err = root.Get(foreign)
	assert.True(t, IsNoSuchAttribute(err))

	_, err = root.Get(nil)
	assert.True(t, IsNoSuchAttribute(err))
}

func TestPath_UntypedExpressionCannotNavigate(t *testing.T) {
	b, _, _ := setup(t)

	_, err := b.CurrentDate().GetByName("year")
	assert.True(t, IsNoSuchAttribute(err))
}

func TestNewPath(t *testing.T) {
	b, _, root := setup(t)

	_, err := b.NewPath(nil, "")
	assert.ErrorIs(t, err, ErrDegeneratePath)

	p, err := b.NewPath(nil, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, p.Lower().(*queryir.PrimaryExpr).Tuples)

	name, err := root.Type().Attribute("name")
	require.NoError(t, err)
	p, err = b.NewPath(name, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "name", p.String())
}

func TestPath_DegenerateFallback(t *testing.T) {
	b, _, _ := setup(t)

	p := newPath(b, nil, nil, "")
	node := p.Lower().(*queryir.PrimaryExpr)

	assert.Empty(t, node.Tuples)
	assert.NotNil(t, node.Tuples)
	assert.False(t, queryir.Validate(node).IsWellFormed)
}

func TestPath_Model(t *testing.T) {
	_, _, root := setup(t)

	name := mustGet(t, root, "name")
	attr, err := name.Model()
	require.NoError(t, err)
	assert.Equal(t, "name", attr.Name)

	phones := mustGet(t, root, "phones")
	_, err = phones.Model()
	var berr *Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, CodeNotBindable, berr.Code)
}

func TestPath_MapAttributeNavigates(t *testing.T) {
	_, _, root := setup(t)

	phones := mustGet(t, root, "phones")

	assert.Equal(t, "e.phones", phones.String())
	assert.Equal(t, "string", phones.Type().Name)
	assert.True(t, phones.Attribute().IsCollection())
}

func TestPath_ParentPath(t *testing.T) {
	_, _, root := setup(t)
	city := mustGet(t, root, "address", "city")

	parent, ok := city.ParentPath().(*Path)
	require.True(t, ok)
	assert.Equal(t, "e.address", parent.String())
	assert.Same(t, root, parent.ParentPath())

	p := newPath(root.b, nil, nil, "x")
	assert.Nil(t, p.ParentPath())
}

func TestPath_TypeExpr(t *testing.T) {
	_, _, root := setup(t)
	dept := mustGet(t, root, "department")

	assert.Equal(t, "TYPE(e.department)", dept.TypeExpr().String())
}

func TestJoin_LowersToAlias(t *testing.T) {
	_, _, root := setup(t)

	d, err := root.JoinAs("department", "d", queryir.JoinLeft)
	require.NoError(t, err)
	name := mustGet(t, d, "name")

	assert.Equal(t, &queryir.ClassExpr{Alias: "d"}, d.Lower())
	assert.Equal(t, []string{"d", "name"}, name.Lower().(*queryir.PrimaryExpr).Tuples)
	assert.Equal(t, "e.department", d.Path().String())
	assert.Equal(t, queryir.JoinLeft, d.JoinType())
}

func TestJoin_GeneratedAlias(t *testing.T) {
	_, _, root := setup(t)

	j, err := root.Join("projects", "")
	require.NoError(t, err)

	assert.Equal(t, "alias1", j.GetAlias())
	assert.Equal(t, queryir.JoinInner, j.JoinType())
	assert.Equal(t, "Project", j.managedType().Name)
}

func TestJoin_UnknownAttribute(t *testing.T) {
	_, _, root := setup(t)

	j, err := root.Join("address", queryir.JoinInner)
	require.NoError(t, err)
	_, err = j.Join("nope", queryir.JoinInner)
	assert.True(t, IsNoSuchAttribute(err))
}

func TestTreat_Errors(t *testing.T) {
	b, _, root := setup(t)

	_, err := b.Treat(root, "Department")
	var berr *Error
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, CodeInvalidTreat, berr.Code)

	_, err = b.Treat(root, "Nope")
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, CodeInvalidTreat, berr.Code)

	j, err := root.Join("department", queryir.JoinInner)
	require.NoError(t, err)
	_, err = b.Treat(j, "Department")
	assert.True(t, IsUnsupported(err))
	_, err = b.TreatJoin(j, "Department")
	assert.ErrorIs(t, err, ErrUnsupported)
}
