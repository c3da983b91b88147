package models

// PaymentStatus is the lifecycle state of a payment. Statuses only move
// forward; Failed is terminal and reachable from every state but Completed.
type PaymentStatus string

const (
	PaymentCreated          PaymentStatus = "Created"
	PaymentCustomerAssigned PaymentStatus = "CustomerAssigned"
	PaymentCalculated       PaymentStatus = "Calculated"
	PaymentCompleted        PaymentStatus = "Completed"
	PaymentFailed           PaymentStatus = "Failed"
)

// rank orders the forward path. Failed sits outside the path.
var statusRank = map[PaymentStatus]int{
	PaymentCreated:          0,
	PaymentCustomerAssigned: 1,
	PaymentCalculated:       2,
	PaymentCompleted:        3,
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition. Completed and Failed accept no further transitions.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == PaymentCompleted || s == PaymentFailed {
		return false
	}
	if next == PaymentFailed {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// IsTerminal reports whether no further transitions are possible.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// Payment aggregates one vendor-initiated payment through its lifecycle.
// The bundles exist in two variants: InitialPaymentBundle (pre-discount) and
// ComputedPayment (post-discount, the signable one).
type Payment struct {
	PaymentId            string                `db:"payment_id" json:"payment_id"`
	VendorAddress        string                `db:"vendor_address" json:"vendor_address"`
	VendorName           string                `db:"vendor_name" json:"vendor_name"`
	PriceUsd             float64               `db:"price_usd" json:"price_usd"`
	CustomerAddress      string                `db:"customer_address" json:"customer_address,omitempty"`
	CustomerUsername     string                `db:"customer_username" json:"customer_username,omitempty"`
	Status               PaymentStatus         `db:"status" json:"status"`
	CreatedAt            int64                 `db:"created_at" json:"created_at"`
	VendorValuations     []TokenValuation      `db:"vendor_valuations" json:"vendor_valuations,omitempty"`
	DiscountConsumption  []DiscountConsumption `db:"discount_consumption" json:"discount_consumption,omitempty"`
	ComputedPayment      []TokenPayment        `db:"computed_payment" json:"computed_payment,omitempty"`
	InitialPaymentBundle []TokenPayment        `db:"initial_payment_bundle" json:"initial_payment_bundle,omitempty"`
}

// SupplementResult is what the service hands back once a payment has been
// calculated: the signable bundle plus everything the customer UI displays.
type SupplementResult struct {
	PaymentId           string                `json:"payment_id"`
	VendorAddress       string                `json:"vendor_address"`
	VendorName          string                `json:"vendor_name"`
	CustomerAddress     string                `json:"customer_address"`
	Status              PaymentStatus         `json:"status"`
	PriceUsd            float64               `json:"price_usd"`
	ActualCostUsd       float64               `json:"actual_cost_usd"`
	CreatedAt           int64                 `json:"created_at"`
	PaymentBundle       []TokenPayment        `json:"payment_bundle"`
	UnsignedTransaction string                `json:"unsigned_transaction"`
	VendorValuations    []TokenValuation      `json:"vendor_valuations"`
	DiscountConsumption []DiscountConsumption `json:"discount_consumption"`
}

// ActivityKind distinguishes merged history entries.
type ActivityKind string

const (
	ActivityPayment ActivityKind = "transaction"
	ActivityDeposit ActivityKind = "deposit"
)

// ActivityItem is one entry in a wallet's merged history, either a payment
// (sent or received) or a deposit. Exactly one of Payment/Deposit is set.
type ActivityItem struct {
	Kind      ActivityKind   `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Payment   *Payment       `json:"payment,omitempty"`
	Deposit   *DepositRecord `json:"deposit,omitempty"`
}
