package domain

// Identity is the acting principal a check is performed on behalf of.
type Identity struct {
	User   string
	Groups []string
}

// SecurityContext carries the session identity through a query's checks.
type SecurityContext struct {
	Identity Identity
	QueryID  string
}

// CatalogSchemaName locates a schema within a catalog.
type CatalogSchemaName struct {
	Catalog string
	Schema  string
}

func (n CatalogSchemaName) String() string { return n.Catalog + "." + n.Schema }

// SchemaTableName locates a table within an implied catalog.
type SchemaTableName struct {
	Schema string
	Table  string
}

func (n SchemaTableName) String() string { return n.Schema + "." + n.Table }

// CatalogSchemaTableName fully qualifies a table or view.
type CatalogSchemaTableName struct {
	Catalog string
	Schema  string
	Table   string
}

func (n CatalogSchemaTableName) String() string {
	return n.Catalog + "." + n.Schema + "." + n.Table
}

// CatalogRoutineName fully qualifies a function or procedure.
type CatalogRoutineName struct {
	Catalog string
	Schema  string
	Routine string
}

func (n CatalogRoutineName) String() string {
	return n.Catalog + "." + n.Schema + "." + n.Routine
}
