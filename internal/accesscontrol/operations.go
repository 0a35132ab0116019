// Package accesscontrol maps engine-level operations onto policy
// evaluation requests and translates evaluator results back into
// engine-visible outcomes: denials, booleans, row filter expressions,
// and column mask expressions.
package accesscontrol

import "trinogate/internal/domain"

// Operation enumerates every engine check this layer answers.
type Operation string

const (
	OpCreateCatalog                   Operation = "CreateCatalog"
	OpDropCatalog                     Operation = "DropCatalog"
	OpAccessCatalog                   Operation = "AccessCatalog"
	OpFilterCatalogs                  Operation = "FilterCatalogs"
	OpShowSchemas                     Operation = "ShowSchemas"
	OpFilterSchemas                   Operation = "FilterSchemas"
	OpCreateSchema                    Operation = "CreateSchema"
	OpDropSchema                      Operation = "DropSchema"
	OpRenameSchema                    Operation = "RenameSchema"
	OpSetSchemaAuthorization          Operation = "SetSchemaAuthorization"
	OpShowCreateSchema                Operation = "ShowCreateSchema"
	OpShowTables                      Operation = "ShowTables"
	OpFilterTables                    Operation = "FilterTables"
	OpCreateTable                     Operation = "CreateTable"
	OpDropTable                       Operation = "DropTable"
	OpRenameTable                     Operation = "RenameTable"
	OpSetTableProperties              Operation = "SetTableProperties"
	OpSetTableComment                 Operation = "SetTableComment"
	OpShowCreateTable                 Operation = "ShowCreateTable"
	OpInsertIntoTable                 Operation = "InsertIntoTable"
	OpDeleteFromTable                 Operation = "DeleteFromTable"
	OpTruncateTable                   Operation = "TruncateTable"
	OpGrantTablePrivilege             Operation = "GrantTablePrivilege"
	OpRevokeTablePrivilege            Operation = "RevokeTablePrivilege"
	OpGrantEntityPrivilege            Operation = "GrantEntityPrivilege"
	OpDenyEntityPrivilege             Operation = "DenyEntityPrivilege"
	OpRevokeEntityPrivilege           Operation = "RevokeEntityPrivilege"
	OpCreateView                      Operation = "CreateView"
	OpDropView                        Operation = "DropView"
	OpCreateViewWithSelectFromColumns Operation = "CreateViewWithSelectFromColumns"
	OpRenameView                      Operation = "RenameView"
	OpSetViewComment                  Operation = "SetViewComment"
	OpAddColumn                       Operation = "AddColumn"
	OpDropColumn                      Operation = "DropColumn"
	OpRenameColumn                    Operation = "RenameColumn"
	OpAlterColumn                     Operation = "AlterColumn"
	OpSetColumnComment                Operation = "SetColumnComment"
	OpUpdateTableColumns              Operation = "UpdateTableColumns"
	OpShowColumns                     Operation = "ShowColumns"
	OpSelectFromColumns               Operation = "SelectFromColumns"
	OpFilterColumns                   Operation = "FilterColumns"
	OpSetSystemSessionProperty        Operation = "SetSystemSessionProperty"
	OpSetCatalogSessionProperty       Operation = "SetCatalogSessionProperty"
	OpImpersonateUser                 Operation = "ImpersonateUser"
	OpSetUser                         Operation = "SetUser"
	OpExecuteQuery                    Operation = "ExecuteQuery"
	OpViewQueryOwnedBy                Operation = "ViewQueryOwnedBy"
	OpFilterViewQueryOwnedBy          Operation = "FilterViewQueryOwnedBy"
	OpKillQueryOwnedBy                Operation = "KillQueryOwnedBy"
	OpReadSystemInformation           Operation = "ReadSystemInformation"
	OpWriteSystemInformation          Operation = "WriteSystemInformation"
	OpExecuteFunction                 Operation = "ExecuteFunction"
	OpExecuteProcedure                Operation = "ExecuteProcedure"
	OpExecuteTableProcedure           Operation = "ExecuteTableProcedure"
	OpShowFunctions                   Operation = "ShowFunctions"
)

// granularity selects the resource shape an operation is evaluated at.
// Several operations are deliberately evaluated coarser than their
// literal target: schema creation at the catalog, table creation at the
// schema, because the object does not exist yet or because ownership
// metadata is unavailable.
type granularity int

const (
	levelNone granularity = iota
	levelCatalog
	levelSchema
	levelTable
	levelColumn
	levelUser
	levelFunction
	levelProcedure
	levelSessionProperty
	levelSystemProperty
)

// conduct classifies how an operation is answered.
type conduct int

const (
	// conductCheck consults the policy evaluator.
	conductCheck conduct = iota
	// conductStaticDeny always denies, regardless of policy state.
	conductStaticDeny
	// conductStaticAllow always succeeds without consulting the evaluator.
	conductStaticAllow
)

// opRule is one row of the dispatch table.
type opRule struct {
	Access  domain.AccessType
	Level   granularity
	Conduct conduct
}

// operationRules is the full dispatch table: every operation's access
// type, evaluation granularity, and behavior class in one place.
var operationRules = map[Operation]opRule{
	// Catalog lifecycle is not delegated to policy.
	OpCreateCatalog: {Level: levelNone, Conduct: conductStaticDeny},
	OpDropCatalog:   {Level: levelNone, Conduct: conductStaticDeny},

	OpAccessCatalog:  {Access: domain.AccessUse, Level: levelCatalog},
	OpFilterCatalogs: {Access: domain.AccessSelect, Level: levelCatalog},
	OpShowSchemas:    {Access: domain.AccessShow, Level: levelCatalog},
	// The schema does not exist yet; authorized at the containing catalog.
	OpCreateSchema: {Access: domain.AccessCreate, Level: levelCatalog},

	OpFilterSchemas: {Access: domain.AccessSelect, Level: levelSchema},
	// No ownership metadata is available; evaluated against the schema name.
	OpDropSchema:             {Access: domain.AccessDrop, Level: levelSchema},
	OpRenameSchema:           {Access: domain.AccessAlter, Level: levelSchema},
	OpSetSchemaAuthorization: {Access: domain.AccessGrant, Level: levelSchema},
	OpShowCreateSchema:       {Access: domain.AccessShow, Level: levelSchema},
	OpShowTables:             {Access: domain.AccessShow, Level: levelSchema},
	OpShowFunctions:          {Access: domain.AccessShow, Level: levelSchema},
	// The table (or view) does not exist yet; authorized at the schema.
	OpCreateTable:                     {Access: domain.AccessCreate, Level: levelSchema},
	OpCreateView:                      {Access: domain.AccessCreate, Level: levelSchema},
	OpCreateViewWithSelectFromColumns: {Access: domain.AccessCreate, Level: levelSchema},

	OpFilterTables: {Access: domain.AccessSelect, Level: levelTable},
	// No ownership metadata is available; evaluated against the table name.
	OpDropTable:          {Access: domain.AccessDrop, Level: levelTable},
	OpRenameTable:        {Access: domain.AccessAlter, Level: levelTable},
	OpSetTableProperties: {Access: domain.AccessAlter, Level: levelTable},
	OpSetTableComment:    {Access: domain.AccessAlter, Level: levelTable},
	OpShowCreateTable:    {Access: domain.AccessShow, Level: levelTable},
	OpInsertIntoTable:    {Access: domain.AccessInsert, Level: levelTable},
	OpDeleteFromTable:    {Access: domain.AccessDelete, Level: levelTable},
	// DELETE is reused for truncation.
	OpTruncateTable:        {Access: domain.AccessDelete, Level: levelTable},
	OpGrantTablePrivilege:  {Access: domain.AccessGrant, Level: levelTable},
	OpRevokeTablePrivilege: {Access: domain.AccessRevoke, Level: levelTable},
	OpDropView:             {Access: domain.AccessDrop, Level: levelTable},
	OpRenameView:           {Access: domain.AccessAlter, Level: levelTable},
	OpSetViewComment:       {Access: domain.AccessAlter, Level: levelTable},
	// Column DDL is evaluated at the table level.
	OpAddColumn:          {Access: domain.AccessAlter, Level: levelTable},
	OpDropColumn:         {Access: domain.AccessDrop, Level: levelTable},
	OpRenameColumn:       {Access: domain.AccessAlter, Level: levelTable},
	OpAlterColumn:        {Access: domain.AccessAlter, Level: levelTable},
	OpSetColumnComment:   {Access: domain.AccessAlter, Level: levelTable},
	OpUpdateTableColumns: {Access: domain.AccessAlter, Level: levelTable},
	OpShowColumns:        {Access: domain.AccessShow, Level: levelTable},
	// Table procedures are authorized as table alterations, not as
	// procedure execution. See the note in DESIGN.md before changing.
	OpExecuteTableProcedure: {Access: domain.AccessAlter, Level: levelTable},

	OpSelectFromColumns: {Access: domain.AccessSelect, Level: levelColumn},

	OpSetSystemSessionProperty:  {Access: domain.AccessAlter, Level: levelSystemProperty},
	OpSetCatalogSessionProperty: {Access: domain.AccessAlter, Level: levelSessionProperty},

	OpImpersonateUser:        {Access: domain.AccessImpersonate, Level: levelUser},
	OpViewQueryOwnedBy:       {Access: domain.AccessImpersonate, Level: levelUser},
	OpKillQueryOwnedBy:       {Access: domain.AccessImpersonate, Level: levelUser},
	OpReadSystemInformation:  {Access: domain.AccessImpersonate, Level: levelUser},
	OpWriteSystemInformation: {Access: domain.AccessImpersonate, Level: levelUser},

	OpExecuteFunction:  {Access: domain.AccessExecute, Level: levelFunction},
	OpExecuteProcedure: {Access: domain.AccessExecute, Level: levelProcedure},

	// Generic entity privileges are not modeled in the resource hierarchy.
	OpGrantEntityPrivilege:  {Level: levelNone, Conduct: conductStaticDeny},
	OpDenyEntityPrivilege:   {Level: levelNone, Conduct: conductStaticDeny},
	OpRevokeEntityPrivilege: {Level: levelNone, Conduct: conductStaticDeny},

	// Fixed no-ops. SetUser is deprecated; everyone may execute queries;
	// no column or query-owner filtering is performed.
	OpSetUser:                {Level: levelNone, Conduct: conductStaticAllow},
	OpExecuteQuery:           {Level: levelNone, Conduct: conductStaticAllow},
	OpFilterColumns:          {Level: levelNone, Conduct: conductStaticAllow},
	OpFilterViewQueryOwnedBy: {Level: levelNone, Conduct: conductStaticAllow},
}

// Operations returns every operation in the dispatch table.
func Operations() []Operation {
	out := make([]Operation, 0, len(operationRules))
	for op := range operationRules {
		out = append(out, op)
	}
	return out
}

// Rule returns the dispatch table row for op.
func Rule(op Operation) (opRule, bool) {
	r, ok := operationRules[op]
	return r, ok
}

// ParseOperation converts an operation name into an Operation.
func ParseOperation(name string) (Operation, bool) {
	op := Operation(name)
	_, ok := operationRules[op]
	return op, ok
}
