package shared

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// AlertType categorizes events on the alert topic
type AlertType string

const (
	AlertTypeTrialBalanceImbalance AlertType = "TRIAL_BALANCE_IMBALANCE"
	AlertTypeLiquidityShortfall    AlertType = "LIQUIDITY_SHORTFALL"
)

// Alert is the message published to the alert topic. Fan-out to operators
// or dashboards is the consumer's concern, not the engine's.
type Alert struct {
	Type    AlertType `json:"type"`
	Date    string    `json:"date,omitempty"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}
