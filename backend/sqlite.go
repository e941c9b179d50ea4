package backend

import (
	"strings"

	_ "modernc.org/sqlite"

	"github.com/nickyhof/CatalogRunner/catalog"
	"github.com/nickyhof/CatalogRunner/core"
)

// NewSQLite returns the embedded SQLite backend (pure Go driver). SQLite has
// no PIVOT or CREATE OR REPLACE, so those are spelled out with conditional
// aggregation, UNION ALL and DROP + CREATE.
func NewSQLite() Backend {
	return &sqlBackend{dialect: sqlDialect{
		id:     "sqlite",
		driver: "sqlite",
		dsn:    ":memory:",
		typeNames: map[core.SemanticType]string{
			core.IntegerType: "INTEGER",
			core.FloatType:   "REAL",
			core.StringType:  "TEXT",
			core.BooleanType: "BOOLEAN",
			core.NullType:    "TEXT",
		},
		expressions: sqliteExpressions,
	}}
}

func sqliteReplace(table, query string) []string {
	return []string{
		"DROP TABLE IF EXISTS " + table,
		"CREATE TABLE " + table + " AS " + query,
	}
}

const sqlitePivotYears = `SUM(CASE WHEN year = 2000 THEN population END) AS "2000",
  SUM(CASE WHEN year = 2010 THEN population END) AS "2010",
  SUM(CASE WHEN year = 2020 THEN population END) AS "2020"`

// sqlitePivotGuard selects the spread values of source that have no pivot
// column; the CASE columns above would silently drop them.
func sqlitePivotGuard(source string) string {
	return "SELECT DISTINCT year FROM " + source +
		" WHERE year IS NULL OR year NOT IN (" + strings.Join(catalog.PivotYears, ", ") + ")"
}

var sqliteExpressions = map[string]sqlExpr{
	catalog.RenameSelect: {
		query: "SELECT model_name AS model, mpg FROM cars",
	},
	catalog.DistinctSelect: {
		query: "SELECT DISTINCT cyl FROM cars",
	},
	catalog.Shape: {
		query: `SELECT
  (SELECT COUNT(*) FROM cars) AS row_count,
  (SELECT COUNT(*) FROM pragma_table_info('cars')) AS column_count`,
	},
	catalog.DerivedColumn: {
		query: "SELECT model_name, hp, wt, hp / wt AS hp_per_wt FROM cars",
	},
	catalog.FilterAnd: {
		statements: sqliteReplace("cars_and", "SELECT * FROM cars WHERE mpg = 21 AND cyl = 6"),
		query:      "SELECT * FROM cars_and",
	},
	catalog.FilterOr: {
		statements: sqliteReplace("cars_or", "SELECT * FROM cars WHERE mpg = 21 OR cyl = 6"),
		query:      "SELECT * FROM cars_or",
	},
	catalog.SortDescLimit: {
		query: "SELECT model_name, mpg FROM cars ORDER BY mpg DESC, model_name LIMIT 5",
	},
	catalog.GroupAggregate: {
		statements: sqliteReplace("cyl_summary",
			"SELECT cyl, AVG(mpg) AS avg_mpg, MAX(hp) AS max_hp, COUNT(*) AS n FROM cars GROUP BY cyl"),
		query: "SELECT * FROM cyl_summary",
	},
	catalog.CreateOrReplace: {
		statements: sqliteReplace("cars_copy", "SELECT * FROM cars"),
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
		query: `SELECT model_name, mpg FROM (
  SELECT model_name, mpg, COUNT(*) OVER (PARTITION BY mpg) AS occurrences FROM cars
) WHERE occurrences > 1`,
	},
	catalog.UniqueRows: {
		query: `SELECT model_name, mpg FROM (
  SELECT model_name, mpg, COUNT(*) OVER (PARTITION BY mpg) AS occurrences FROM cars
) WHERE occurrences = 1`,
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
		statements: append(sqliteReplace("cars_deleted", "SELECT * FROM cars"),
			"DELETE FROM cars_deleted WHERE model_name = 'Mazda RX4'"),
		query: "SELECT * FROM cars_deleted",
	},
	catalog.DeleteRowAgain: {
		statements: []string{"DELETE FROM cars_deleted WHERE model_name = 'Mazda RX4'"},
		query:      "SELECT * FROM cars_deleted",
	},
	catalog.UpdateCell: {
		statements: append(sqliteReplace("cars_updated", "SELECT * FROM cars"),
			"UPDATE cars_updated SET mpg = 999 WHERE model_name = 'Mazda RX4 Wag'"),
		query: "SELECT * FROM cars_updated",
	},
	catalog.CreateIfNotExistsAgain: {
		statements: []string{"CREATE TABLE IF NOT EXISTS cars_snapshot AS SELECT * FROM cars_deleted"},
		query:      "SELECT * FROM cars_snapshot",
	},
	catalog.Pivot: {
		guard:      sqlitePivotGuard("cities"),
		statements: sqliteReplace("cities_wide",
			"SELECT country,\n  "+sqlitePivotYears+"\nFROM cities GROUP BY country"),
		query: "SELECT * FROM cities_wide",
	},
	catalog.PivotTwoKeys: {
		guard: sqlitePivotGuard("cities"),
		query: "SELECT continent, country,\n  " + sqlitePivotYears + "\nFROM cities GROUP BY continent, country",
	},
	catalog.PivotFiltered: {
		guard: sqlitePivotGuard("(SELECT * FROM cities WHERE population > 61000000)"),
		query: "SELECT country,\n  " + sqlitePivotYears + "\nFROM cities WHERE population > 61000000 GROUP BY country",
	},
	catalog.Unpivot: {
		query: `SELECT country, 2000 AS year, "2000" AS population FROM cities_wide WHERE "2000" IS NOT NULL
UNION ALL
SELECT country, 2010 AS year, "2010" AS population FROM cities_wide WHERE "2010" IS NOT NULL
UNION ALL
SELECT country, 2020 AS year, "2020" AS population FROM cities_wide WHERE "2020" IS NOT NULL`,
	},
}
