package payment

import "context"

// Mock is a test double for Disburser that records calls.
type Mock struct {
	SendFunc func(ctx context.Context, address string, amount float64, memo string) (*Result, error)

	Calls     int
	Addresses []string
	Amounts   []float64
	Memos     []string
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Send(ctx context.Context, address string, amount float64, memo string) (*Result, error) {
	m.Calls++
	m.Addresses = append(m.Addresses, address)
	m.Amounts = append(m.Amounts, amount)
	m.Memos = append(m.Memos, memo)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, address, amount, memo)
	}
	return &Result{Success: true, Details: "mock disbursement"}, nil
}
