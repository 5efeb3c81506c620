package ir

// EntitySpec is a compiled managed-type definition.
type EntitySpec struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`            // "entity", "embeddable", "mapped_superclass"
	Super       string          `json:"super,omitempty"` // supertype name, for treat/downcast
	IDAttribute string          `json:"id_attribute,omitempty"`
	Attributes  []AttributeSpec `json:"attributes"`
}

// AttributeSpec is one persistent attribute of an EntitySpec.
type AttributeSpec struct {
	Name       string `json:"name"`
	Type       string `json:"type"`                 // basic type name or entity name; element type for collections
	Collection string `json:"collection,omitempty"` // "", "collection", "set", "list", "map"
	KeyType    string `json:"key_type,omitempty"`   // map attributes only
}

// Attribute returns the named attribute and whether it exists.
func (s EntitySpec) Attribute(name string) (AttributeSpec, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeSpec{}, false
}

// Managed type kinds.
const (
	KindEntity           = "entity"
	KindEmbeddable       = "embeddable"
	KindMappedSuperclass = "mapped_superclass"
)

// ValidEntityKinds defines allowed EntitySpec.Kind values.
var ValidEntityKinds = map[string]bool{
	KindEntity:           true,
	KindEmbeddable:       true,
	KindMappedSuperclass: true,
}

// Collection attribute shapes.
const (
	CollectionNone = ""
	CollectionBag  = "collection"
	CollectionSet  = "set"
	CollectionList = "list"
	CollectionMap  = "map"
)

// ValidCollections defines allowed AttributeSpec.Collection values.
var ValidCollections = map[string]bool{
	CollectionNone: true,
	CollectionBag:  true,
	CollectionSet:  true,
	CollectionList: true,
	CollectionMap:  true,
}

// basicTypes are the leaf types. Navigation past one of these is rejected.
var basicTypes = map[string]bool{
	"string":     true,
	"char":       true,
	"int":        true,
	"long":       true,
	"short":      true,
	"byte":       true,
	"float":      true,
	"double":     true,
	"decimal":    true,
	"biginteger": true,
	"bool":       true,
	"date":       true,
	"time":       true,
	"timestamp":  true,
	"bytes":      true,
	"uuid":       true,
}

// IsBasicTypeName reports whether name is a leaf type.
func IsBasicTypeName(name string) bool {
	return basicTypes[name]
}

// BasicTypeNames returns the leaf type names in sorted order.
func BasicTypeNames() []string {
	return []string{
		"biginteger", "bool", "byte", "bytes", "char", "date", "decimal",
		"double", "float", "int", "long", "short", "string", "time",
		"timestamp", "uuid",
	}
}

// Encode returns the IR form of s. Empty optional fields are omitted.
func (s EntitySpec) Encode() IRObject {
	attrs := make(IRArray, len(s.Attributes))
	for i, a := range s.Attributes {
		obj := IRObject{"name": IRString(a.Name), "type": IRString(a.Type)}
		if a.Collection != CollectionNone {
			obj["collection"] = IRString(a.Collection)
		}
		if a.KeyType != "" {
			obj["key_type"] = IRString(a.KeyType)
		}
		attrs[i] = obj
	}
	obj := IRObject{
		"name":       IRString(s.Name),
		"kind":       IRString(s.Kind),
		"attributes": attrs,
	}
	if s.Super != "" {
		obj["super"] = IRString(s.Super)
	}
	if s.IDAttribute != "" {
		obj["id_attribute"] = IRString(s.IDAttribute)
	}
	return obj
}

// SchemaID is the content identity of specs in declaration order.
func SchemaID(specs []EntitySpec) (string, error) {
	arr := make(IRArray, len(specs))
	for i, s := range specs {
		arr[i] = s.Encode()
	}
	return ContentID(DomainSchema, arr)
}
