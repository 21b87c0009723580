// Package engine executes resolved intents against the uploaded dataset
// using an in-memory DuckDB instance.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tabletalk/server/internal/assistant/dataset"
	"github.com/tabletalk/server/internal/assistant/model"
	logx "github.com/tabletalk/server/pkg/logger"
)

const (
	datasetTable = "dataset"
	maxTitleLen  = 60
)

const unanswerableDefault = "I couldn't find a way to answer that with this dataset. Please try rephrasing your question."

// DuckDB loads the dataset into an in-memory DuckDB instance per call and
// runs the aggregation the resolved intent describes. Analysis failures
// surface as answer text, never as a panic or a hard error.
type DuckDB struct{}

func NewDuckDB() *DuckDB {
	return &DuckDB{}
}

func (d *DuckDB) Execute(ctx context.Context, resolved model.ResolvedIntent, plan, utterance string, table *dataset.Table) (*model.AnswerResult, error) {
	if !resolved.CanBeAnswered {
		msg := resolved.ErrorMessage
		if msg == "" {
			msg = resolved.SuggestedResponse
		}
		if msg == "" {
			msg = unanswerableDefault
		}
		return &model.AnswerResult{Text: msg}, nil
	}

	if !resolved.ProducesGroupedRows() && resolved.ValueColumn == "" {
		return &model.AnswerResult{Text: summarize(table)}, nil
	}

	res, err := d.run(ctx, resolved, table)
	if err != nil {
		logx.Error().Err(err).Msg("dataset analysis failed")
		return &model.AnswerResult{
			Text: fmt.Sprintf("I encountered an error while analyzing the data: %v. Please try rephrasing your question.", err),
		}, nil
	}

	if resolved.RequiresVisualization && len(res.rows) > 0 {
		res.answer.Chart = &model.ChartPayload{
			Type:  resolved.ChartType,
			Data:  res.rows,
			XKey:  resolved.GroupColumn,
			YKey:  res.valueKey,
			Title: ChartTitle(utterance),
		}
	}
	return res.answer, nil
}

type runResult struct {
	answer   *model.AnswerResult
	rows     []map[string]any
	valueKey string
}

func (d *DuckDB) run(ctx context.Context, resolved model.ResolvedIntent, table *dataset.Table) (*runResult, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	if err := loadTable(ctx, db, table); err != nil {
		return nil, err
	}

	if resolved.ProducesGroupedRows() {
		return groupedAnswer(ctx, db, resolved)
	}
	return scalarAnswer(ctx, db, resolved)
}

// loadTable materializes the CSV rows as VARCHAR columns; numeric semantics
// come from TRY_CAST at query time so one bad cell never fails the load.
func loadTable(ctx context.Context, db *sql.DB, table *dataset.Table) error {
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = quoteIdent(c) + " VARCHAR"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", datasetTable, strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(table.Columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", datasetTable, placeholders)
	stmt, err := db.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(table.Columns))
	for _, row := range table.Rows {
		for i := range args {
			args[i] = row[i]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return nil
}

func groupedAnswer(ctx context.Context, db *sql.DB, resolved model.ResolvedIntent) (*runResult, error) {
	agg := aggregateSQL(resolved.Aggregation, resolved.ValueColumn)
	where, args := filterClause(resolved.GroupColumn, resolved.FilterValues)

	order := "DESC"
	if resolved.SortOrder == model.SortAsc {
		order = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s AS grp, %s AS val FROM %s%s GROUP BY grp ORDER BY val %s",
		quoteIdent(resolved.GroupColumn), agg, datasetTable, where, order,
	)
	if resolved.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", resolved.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate query: %w", err)
	}
	defer rows.Close()

	valueKey := valueKeyFor(resolved)
	var chartRows []map[string]any
	var lines []string
	for rows.Next() {
		var grp sql.NullString
		var val sql.NullFloat64
		if err := rows.Scan(&grp, &val); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		name := grp.String
		if !grp.Valid || name == "" {
			name = "(blank)"
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", name, formatNumber(val.Float64)))
		chartRows = append(chartRows, map[string]any{
			resolved.GroupColumn: name,
			valueKey:             val.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	if len(lines) == 0 {
		return &runResult{answer: &model.AnswerResult{Text: emptyResultText(resolved)}}, nil
	}

	subject := resolved.ValueColumn
	if resolved.Aggregation == model.AggCount {
		subject = "rows"
	}
	text := fmt.Sprintf("Here are the results (%s of %s by %s):\n\n%s",
		resolved.Aggregation, subject, resolved.GroupColumn, strings.Join(lines, "\n"))
	return &runResult{
		answer:   &model.AnswerResult{Text: text},
		rows:     chartRows,
		valueKey: valueKey,
	}, nil
}

func scalarAnswer(ctx context.Context, db *sql.DB, resolved model.ResolvedIntent) (*runResult, error) {
	agg := aggregateSQL(resolved.Aggregation, resolved.ValueColumn)
	query := fmt.Sprintf("SELECT %s FROM %s", agg, datasetTable)

	var val sql.NullFloat64
	if err := db.QueryRowContext(ctx, query).Scan(&val); err != nil {
		return nil, fmt.Errorf("scalar query: %w", err)
	}
	if !val.Valid {
		return &runResult{answer: &model.AnswerResult{Text: "The query returned no results."}}, nil
	}
	text := fmt.Sprintf("The %s of %s is: %s", resolved.Aggregation, resolved.ValueColumn, formatNumber(val.Float64))
	return &runResult{answer: &model.AnswerResult{Text: text}}, nil
}

// aggregateSQL builds the aggregate expression. count ignores the value
// column entirely; everything else casts it to DOUBLE, turning non-numeric
// cells into NULLs the aggregate skips.
func aggregateSQL(agg model.Aggregation, valueColumn string) string {
	if agg == model.AggCount {
		return "COUNT(*)"
	}
	fn := map[model.Aggregation]string{
		model.AggSum:  "SUM",
		model.AggMean: "AVG",
		model.AggMin:  "MIN",
		model.AggMax:  "MAX",
	}[agg]
	if fn == "" {
		fn = "SUM"
	}
	return fmt.Sprintf("%s(TRY_CAST(%s AS DOUBLE))", fn, quoteIdent(valueColumn))
}

// filterClause matches filter values case-insensitively as substrings of the
// group column, mirroring how users refer to categories ("the west region").
func filterClause(groupColumn string, filters []string) (string, []any) {
	if len(filters) == 0 || groupColumn == "" {
		return "", nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		conds = append(conds, fmt.Sprintf("lower(%s) LIKE ?", quoteIdent(groupColumn)))
		args = append(args, "%"+strings.ToLower(f)+"%")
	}
	return " WHERE " + strings.Join(conds, " OR "), args
}

func emptyResultText(resolved model.ResolvedIntent) string {
	if len(resolved.FilterValues) > 0 {
		return fmt.Sprintf("No rows matched the filter %q. Please check the value and try again.",
			strings.Join(resolved.FilterValues, ", "))
	}
	return "The query returned no results."
}

func valueKeyFor(resolved model.ResolvedIntent) string {
	if resolved.Aggregation == model.AggCount {
		return "count"
	}
	return resolved.ValueColumn
}

func summarize(table *dataset.Table) string {
	return fmt.Sprintf("The dataset has %d rows and %d columns: %s. Ask me about any of them, for example the top groups by a numeric column.",
		table.RowCount(), len(table.Columns), strings.Join(table.Columns, ", "))
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// ChartTitle derives a display title from the user's question.
func ChartTitle(utterance string) string {
	title := strings.TrimSpace(utterance)
	title = strings.TrimRight(title, "?.")
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	if len(r) > maxTitleLen {
		r = r[:maxTitleLen]
	}
	return string(r)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ model.ExecutionEngine = (*DuckDB)(nil)
