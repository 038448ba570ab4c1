// Command tally is a local inspection tool. It opens the configured
// storage backend directly and prints an owner's records or summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/services"
)

func main() {
	var (
		email       = flag.String("email", "", "owner email to inspect (required)")
		typeFilter  = flag.String("type", "", "filter by kind: Income or Expense")
		search      = flag.String("search", "", "substring filter on title and category")
		start       = flag.String("start", "", "start date (YYYY-MM-DD)")
		end         = flag.String("end", "", "end date (YYYY-MM-DD)")
		sortField   = flag.String("sort", "", "sort field: created_at or amount")
		sortOrder   = flag.String("order", "", "sort order: asc or desc")
		page        = flag.Int("page", 1, "page number")
		kind        = flag.String("kind", "Expense", "kind for the categories command")
		granularity = flag.String("granularity", "monthly", "bucket width for the periods command: monthly or weekly")
		category    = flag.String("category", "", "category filter for the periods command")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "list"
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		os.Exit(2)
	}

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	user, err := result.Store.UserByEmail(ctx, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup owner %q: %v\n", *email, err)
		os.Exit(1)
	}

	svc := services.NewTransactionService(result.Store, nil)
	all, err := svc.ListAll(ctx, user.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list records: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "list":
		q := url.Values{}
		setIfPresent(q, "type", *typeFilter)
		setIfPresent(q, "search", *search)
		setIfPresent(q, "start", *start)
		setIfPresent(q, "end", *end)
		setIfPresent(q, "sort", *sortField)
		setIfPresent(q, "order", *sortOrder)
		q.Set("page", strconv.Itoa(*page))
		printList(all, core.ParseViewSpec(q), cfg.PageSize)
	case "categories":
		printCategories(all, core.Kind(*kind))
	case "periods":
		printPeriods(all, core.Granularity(*granularity), *category)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want list, categories or periods)\n", command)
		os.Exit(2)
	}
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func printList(all []core.Transaction, spec core.ViewSpec, pageSize int) {
	filtered := core.FilterAndSort(all, spec)
	pageItems, totalPages := core.Paginate(filtered, spec.Page, pageSize)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Kind", "Title", "Category", "Amount", "Created"})
	for _, t := range pageItems {
		table.Append([]string{
			t.ID,
			string(t.Kind),
			t.Title,
			t.Category,
			t.Amount.Format(),
			t.CreatedAt.Format("2006-01-02"),
		})
	}
	table.Render()

	totals := core.Totals(filtered)
	fmt.Printf("page %d/%d, %d records\n",
		core.ClampPage(spec.Page, len(filtered), pageSize), totalPages, len(filtered))
	fmt.Printf("income %s, expense %s, balance %s\n",
		totals.Income.Format(), totals.Expense.Format(), totals.Balance.Format())
}

func printCategories(all []core.Transaction, kind core.Kind) {
	if err := kind.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid kind: %v\n", err)
		os.Exit(2)
	}

	var ofKind []core.Transaction
	for _, t := range all {
		if t.Kind == kind {
			ofKind = append(ofKind, t)
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Category", "Total", "Count", "Percentage"})
	for _, cs := range core.SummarizeByCategory(ofKind) {
		table.Append([]string{
			cs.Category,
			cs.Total.Format(),
			strconv.Itoa(cs.Count),
			fmt.Sprintf("%.1f%%", cs.Percentage),
		})
	}
	table.Render()
}

func printPeriods(all []core.Transaction, granularity core.Granularity, category string) {
	switch granularity {
	case core.MonthlyBuckets, core.WeeklyBuckets:
	default:
		fmt.Fprintln(os.Stderr, "granularity must be monthly or weekly")
		os.Exit(2)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Period", "Income", "Expense", "Total"})
	for _, ps := range core.SummarizeByPeriod(all, granularity, category) {
		table.Append([]string{
			ps.Period,
			ps.Income.Format(),
			ps.Expense.Format(),
			ps.Total.Format(),
		})
	}
	table.Render()
}
