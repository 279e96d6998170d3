package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"orders-lake/internal/domain"
)

// QuerySetFile is the on-disk shape of QUERIES_FILE.
type QuerySetFile struct {
	Queries []domain.QueryJobSpec `yaml:"queries"`
}

// DefaultQuerySet returns the built-in dashboard queries over the filtered orders view.
func DefaultQuerySet() []domain.QueryJobSpec {
	return []domain.QueryJobSpec{
		{
			Title: "1. Total Sales by Customer",
			Query: `SELECT Customer, SUM(Amount) AS TotalAmountSpent
FROM "filtered_orders"
GROUP BY Customer
ORDER BY TotalAmountSpent DESC;`,
		},
		{
			Title: "2. Monthly Order Volume and Revenue",
			Query: `SELECT DATE_TRUNC('month', CAST(OrderDate AS DATE)) AS OrderMonth,
COUNT(OrderID) AS NumberOfOrders,
ROUND(SUM(Amount), 2) AS MonthlyRevenue
FROM "filtered_orders"
GROUP BY 1 ORDER BY OrderMonth;`,
		},
		{
			Title: "3. Order Status Dashboard",
			Query: `SELECT Status, COUNT(OrderID) AS OrderCount, ROUND(SUM(Amount), 2) AS TotalAmount
FROM "filtered_orders"
GROUP BY Status;`,
		},
		{
			Title: "4. Average Order Value (AOV) per Customer",
			Query: `SELECT Customer, ROUND(AVG(Amount), 2) AS AverageOrderValue
FROM "filtered_orders"
GROUP BY Customer
ORDER BY AverageOrderValue DESC;`,
		},
		{
			Title: "5. Top 10 Largest Orders in February 2025",
			Query: `SELECT OrderDate, OrderID, Customer, Amount
FROM "filtered_orders"
WHERE CAST(OrderDate AS DATE) BETWEEN DATE '2025-02-01' AND DATE '2025-02-28'
ORDER BY Amount DESC LIMIT 10;`,
		},
	}
}

// LoadQuerySet reads the query list from a YAML file, or returns the
// built-in set when path is empty. Specs without a database or result
// destination inherit the configured defaults.
func (c *Config) LoadQuerySet(path string) ([]domain.QueryJobSpec, error) {
	var specs []domain.QueryJobSpec
	if path == "" {
		specs = DefaultQuerySet()
	} else {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
		if err != nil {
			return nil, fmt.Errorf("read query set %s: %w", path, err)
		}
		var f QuerySetFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse query set %s: %w", path, err)
		}
		if len(f.Queries) == 0 {
			return nil, domain.ErrValidation("query set %s defines no queries", path)
		}
		specs = f.Queries
	}

	for i := range specs {
		if specs[i].Database == "" {
			specs[i].Database = c.QueryDatabase
		}
		if specs[i].ResultDestination == "" {
			specs[i].ResultDestination = c.ResultLocation
		}
	}
	if err := domain.ValidateQuerySpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}
