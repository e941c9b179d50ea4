package backend

import (
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// NewDuckDB returns the embedded DuckDB backend. It runs in memory and uses
// DuckDB's native CREATE OR REPLACE, QUALIFY, PIVOT and UNPIVOT.
func NewDuckDB() Backend {
	return &sqlBackend{dialect: sqlDialect{
		id:     "duckdb",
		driver: "duckdb",
		dsn:    "",
		typeNames: map[core.SemanticType]string{
			core.IntegerType: "BIGINT",
			core.FloatType:   "DOUBLE",
			core.StringType:  "VARCHAR",
			core.BooleanType: "BOOLEAN",
			core.NullType:    "VARCHAR",
		},
		expressions: duckdbExpressions,
	}}
}

var duckdbExpressions = map[string]sqlExpr{
	catalog.RenameSelect: {
		query: "SELECT model_name AS model, mpg FROM cars",
	},
	catalog.DistinctSelect: {
		query: "SELECT DISTINCT cyl FROM cars",
	},
	catalog.Shape: {
		query: `SELECT
  (SELECT COUNT(*) FROM cars) AS row_count,
  (SELECT COUNT(*) FROM information_schema.columns WHERE table_name = 'cars') AS column_count`,
	},
	catalog.DerivedColumn: {
		query: "SELECT model_name, hp, wt, hp / wt AS hp_per_wt FROM cars",
	},
	catalog.FilterAnd: {
		statements: []string{"CREATE OR REPLACE TABLE cars_and AS SELECT * FROM cars WHERE mpg = 21 AND cyl = 6"},
		query:      "SELECT * FROM cars_and",
	},
	catalog.FilterOr: {
		statements: []string{"CREATE OR REPLACE TABLE cars_or AS SELECT * FROM cars WHERE mpg = 21 OR cyl = 6"},
		query:      "SELECT * FROM cars_or",
	},
	catalog.SortDescLimit: {
		query: "SELECT model_name, mpg FROM cars ORDER BY mpg DESC, model_name LIMIT 5",
	},
	catalog.GroupAggregate: {
		statements: []string{`CREATE OR REPLACE TABLE cyl_summary AS
  SELECT cyl, AVG(mpg) AS avg_mpg, MAX(hp) AS max_hp, COUNT(*) AS n
  FROM cars
  GROUP BY cyl`},
		query: "SELECT * FROM cyl_summary",
	},
	catalog.CreateOrReplace: {
		statements: []string{"CREATE OR REPLACE TABLE cars_copy AS SELECT * FROM cars"},
		query:      "SELECT * FROM cars_copy",
	},
	catalog.CreateIfNotExists: {
		statements: []string{"CREATE TABLE IF NOT EXISTS cars_snapshot AS SELECT * FROM cars"},
		query:      "SELECT * FROM cars_snapshot",
	},
	catalog.UniqueCheck: {
		query: `SELECT
  COUNT(DISTINCT model_name) = COUNT(*) AS model_name_unique,
  COUNT(DISTINCT model_name) AS distinct_models
FROM cars`,
	},
	catalog.DuplicateRows: {
		query: "SELECT model_name, mpg FROM cars QUALIFY COUNT(*) OVER (PARTITION BY mpg) > 1",
	},
	catalog.UniqueRows: {
		query: "SELECT model_name, mpg FROM cars QUALIFY COUNT(*) OVER (PARTITION BY mpg) = 1",
	},
	catalog.JoinLeft: {
		query: `SELECT s.cyl, s.avg_mpg, s.max_hp, s.n, c.layout
FROM cyl_summary s
LEFT JOIN cylinders c ON s.cyl = c.cyl`,
	},
	catalog.JoinInner: {
		query: `SELECT s.cyl, s.avg_mpg, s.max_hp, s.n, c.layout
FROM cyl_summary s
INNER JOIN cylinders c ON s.cyl = c.cyl`,
	},
	catalog.AppendAll: {
		query: "SELECT * FROM cars_and UNION ALL SELECT * FROM cars_or",
	},
	catalog.AppendDistinct: {
		query: "SELECT * FROM cars_and UNION SELECT * FROM cars_or",
	},
	catalog.DeleteRow: {
		statements: []string{
			"CREATE OR REPLACE TABLE cars_deleted AS SELECT * FROM cars",
			"DELETE FROM cars_deleted WHERE model_name = 'Mazda RX4'",
		},
		query: "SELECT * FROM cars_deleted",
	},
	catalog.DeleteRowAgain: {
		statements: []string{"DELETE FROM cars_deleted WHERE model_name = 'Mazda RX4'"},
		query:      "SELECT * FROM cars_deleted",
	},
	catalog.UpdateCell: {
		statements: []string{
			"CREATE OR REPLACE TABLE cars_updated AS SELECT * FROM cars",
			"UPDATE cars_updated SET mpg = 999 WHERE model_name = 'Mazda RX4 Wag'",
		},
		query: "SELECT * FROM cars_updated",
	},
	catalog.CreateIfNotExistsAgain: {
		statements: []string{"CREATE TABLE IF NOT EXISTS cars_snapshot AS SELECT * FROM cars_deleted"},
		query:      "SELECT * FROM cars_snapshot",
	},
	catalog.Pivot: {
		statements: []string{`CREATE OR REPLACE TABLE cities_wide AS
  SELECT * FROM (PIVOT cities ON year USING SUM(population) GROUP BY country)`},
		query: "SELECT * FROM cities_wide",
	},
	catalog.PivotTwoKeys: {
		query: "PIVOT cities ON year USING SUM(population) GROUP BY continent, country",
	},
	catalog.PivotFiltered: {
		query: `PIVOT (SELECT * FROM cities WHERE population > 61000000)
ON year USING SUM(population) GROUP BY country`,
	},
	catalog.Unpivot: {
		query: `UNPIVOT cities_wide
ON "2000", "2010", "2020"
INTO NAME year VALUE population`,
	},
}
