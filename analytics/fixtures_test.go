package analytics

import "time"

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

func sale(name string, date time.Time, amount float64) SalesRecord {
	return SalesRecord{ID: name + date.Format("20060102"), Date: date, Amount: amount, CustomerName: name}
}

func productSale(product string, amount float64) SalesRecord {
	r := sale("Buyer", daysAgo(1), amount)
	if product != "" {
		r.Product = strPtr(product)
	}
	return r
}

// customerFixture holds one customer per customer-analysis segment plus a
// long-lapsed buyer.
func customerFixture() []SalesRecord {
	var records []SalesRecord
	for i := 0; i < 6; i++ {
		name := "Alice"
		if i == 3 {
			name = "alice"
		}
		records = append(records, sale(name, daysAgo(10+i*10), 2500))
	}
	records[0].CustomerEmail = strPtr("alice@old.example")
	records[5].CustomerEmail = strPtr("alice@example.com")

	records = append(records,
		sale("Bob", daysAgo(50), 100),
		sale("Bob", daysAgo(60), 100),
		sale("Bob", daysAgo(70), 100),
		sale("Carol", daysAgo(5), 200),
		sale("Dave", daysAgo(100), 2000),
		sale("Eve", daysAgo(400), 50),
	)
	return records
}
