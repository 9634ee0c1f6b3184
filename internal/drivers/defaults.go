package drivers

import (
	"database/sql"
	"reflect"

	"github.com/custodia-labs/datacat/internal/core/domain"
	"github.com/custodia-labs/datacat/internal/core/ports/driven"
	"github.com/custodia-labs/datacat/internal/core/services"
	"github.com/custodia-labs/datacat/internal/drivers/filesystem"
	"github.com/custodia-labs/datacat/internal/drivers/jsonfmt"
	"github.com/custodia-labs/datacat/internal/drivers/markup"
	"github.com/custodia-labs/datacat/internal/drivers/raw"
	"github.com/custodia-labs/datacat/internal/drivers/sqldb"
	"github.com/custodia-labs/datacat/internal/drivers/text"
	"github.com/custodia-labs/datacat/internal/drivers/tomlfmt"
	"github.com/custodia-labs/datacat/internal/drivers/yamlfmt"
)

// BindTypes binds the tags the bundled drivers produce beyond the core set.
func BindTypes(types *domain.TypeRegistry) {
	types.Bind(domain.TagSQLDB, reflect.TypeFor[*sql.DB]())
	types.Bind(domain.TagRows, reflect.TypeFor[[]map[string]any]())
	types.Bind(domain.TagJSONValue, reflect.TypeFor[any]())
	types.Bind(domain.TagTOMLDocument, reflect.TypeFor[map[string]any]())
	types.Bind(domain.TagYAMLDocument, reflect.TypeFor[any]())
}

// RegisterPackages adds the optional dependencies the bundled drivers look
// up at use time.
func RegisterPackages(packages driven.PackageTable) {
	sqldb.RegisterSQLite(packages)
}

// RegisterDefaults registers every bundled driver. The sql storage resolves
// its engines through packages.
func RegisterDefaults(d *services.Drivers, packages driven.PackageTable) {
	d.RegisterStorage(filesystem.New())
	d.RegisterStorage(raw.New())
	d.RegisterStorage(sqldb.NewStorage(packages))

	d.RegisterLoader(text.NewPassthrough())
	d.RegisterLoader(text.NewLoader())
	d.RegisterLoader(text.NewLinesLoader())
	d.RegisterLoader(jsonfmt.NewLoader())
	d.RegisterLoader(tomlfmt.NewLoader())
	d.RegisterLoader(yamlfmt.NewLoader())
	d.RegisterLoader(sqldb.NewLoader())
	d.RegisterLoader(markup.NewHTML())
	d.RegisterLoader(markup.NewMarkdown())

	d.RegisterWriter(text.NewWriter())
	d.RegisterWriter(jsonfmt.NewWriter())
	d.RegisterWriter(tomlfmt.NewWriter())
	d.RegisterWriter(yamlfmt.NewWriter())
	d.RegisterWriter(sqldb.NewWriter())
}
