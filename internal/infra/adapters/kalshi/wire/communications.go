package wire

import "github.com/coachpo/kalshi-gateway/internal/domain/schema"

// Communication is the closed set of RFQ and quote payloads delivered on the communications channel.
type Communication interface {
	communicationType() MsgType
}

// MveSelectedLeg is one leg of a multivariate RFQ.
type MveSelectedLeg struct {
	EventTicker               *string         `json:"event_ticker,omitempty"`
	MarketTicker              *string         `json:"market_ticker,omitempty"`
	Side                      *schema.YesNo   `json:"side,omitempty"`
	YesSettlementValueDollars *schema.Dollars `json:"yes_settlement_value_dollars,omitempty"`
}

// RfqCreated announces a new request for quote.
type RfqCreated struct {
	ID                  string           `json:"id"`
	CreatorID           string           `json:"creator_id"`
	MarketTicker        string           `json:"market_ticker"`
	EventTicker         *string          `json:"event_ticker,omitempty"`
	Contracts           *int64           `json:"contracts,omitempty"`
	ContractsFP         *schema.Count    `json:"contracts_fp,omitempty"`
	TargetCost          *int64           `json:"target_cost,omitempty"`
	TargetCostDollars   *schema.Dollars  `json:"target_cost_dollars,omitempty"`
	CreatedTS           string           `json:"created_ts"`
	MveCollectionTicker *string          `json:"mve_collection_ticker,omitempty"`
	MveSelectedLegs     []MveSelectedLeg `json:"mve_selected_legs,omitempty"`
}

var rfqCreatedRequired = []string{"id", "creator_id", "market_ticker", "created_ts"}

// RfqDeleted announces a withdrawn request for quote.
type RfqDeleted struct {
	ID                string          `json:"id"`
	CreatorID         string          `json:"creator_id"`
	MarketTicker      string          `json:"market_ticker"`
	EventTicker       *string         `json:"event_ticker,omitempty"`
	Contracts         *int64          `json:"contracts,omitempty"`
	ContractsFP       *schema.Count   `json:"contracts_fp,omitempty"`
	TargetCost        *int64          `json:"target_cost,omitempty"`
	TargetCostDollars *schema.Dollars `json:"target_cost_dollars,omitempty"`
	DeletedTS         string          `json:"deleted_ts"`
}

var rfqDeletedRequired = []string{"id", "creator_id", "market_ticker", "deleted_ts"}

// QuoteCreated announces a quote against an RFQ.
type QuoteCreated struct {
	QuoteID               string          `json:"quote_id"`
	RfqID                 string          `json:"rfq_id"`
	QuoteCreatorID        string          `json:"quote_creator_id"`
	MarketTicker          string          `json:"market_ticker"`
	EventTicker           *string         `json:"event_ticker,omitempty"`
	YesBid                int64           `json:"yes_bid"`
	NoBid                 int64           `json:"no_bid"`
	YesBidDollars         schema.Dollars  `json:"yes_bid_dollars"`
	NoBidDollars          schema.Dollars  `json:"no_bid_dollars"`
	YesContractsOffered   *int64          `json:"yes_contracts_offered,omitempty"`
	NoContractsOffered    *int64          `json:"no_contracts_offered,omitempty"`
	YesContractsOfferedFP *schema.Count   `json:"yes_contracts_offered_fp,omitempty"`
	NoContractsOfferedFP  *schema.Count   `json:"no_contracts_offered_fp,omitempty"`
	RfqTargetCost         *int64          `json:"rfq_target_cost,omitempty"`
	RfqTargetCostDollars  *schema.Dollars `json:"rfq_target_cost_dollars,omitempty"`
	CreatedTS             string          `json:"created_ts"`
}

var quoteCreatedRequired = []string{
	"quote_id", "rfq_id", "quote_creator_id", "market_ticker", "yes_bid", "no_bid",
	"yes_bid_dollars", "no_bid_dollars", "created_ts",
}

// QuoteAccepted announces that a quote was accepted.
type QuoteAccepted struct {
	QuoteID               string          `json:"quote_id"`
	RfqID                 string          `json:"rfq_id"`
	QuoteCreatorID        string          `json:"quote_creator_id"`
	MarketTicker          string          `json:"market_ticker"`
	EventTicker           *string         `json:"event_ticker,omitempty"`
	YesBid                int64           `json:"yes_bid"`
	NoBid                 int64           `json:"no_bid"`
	YesBidDollars         schema.Dollars  `json:"yes_bid_dollars"`
	NoBidDollars          schema.Dollars  `json:"no_bid_dollars"`
	AcceptedSide          *schema.YesNo   `json:"accepted_side,omitempty"`
	ContractsAccepted     *int64          `json:"contracts_accepted,omitempty"`
	YesContractsOffered   *int64          `json:"yes_contracts_offered,omitempty"`
	NoContractsOffered    *int64          `json:"no_contracts_offered,omitempty"`
	ContractsAcceptedFP   *schema.Count   `json:"contracts_accepted_fp,omitempty"`
	YesContractsOfferedFP *schema.Count   `json:"yes_contracts_offered_fp,omitempty"`
	NoContractsOfferedFP  *schema.Count   `json:"no_contracts_offered_fp,omitempty"`
	RfqTargetCost         *int64          `json:"rfq_target_cost,omitempty"`
	RfqTargetCostDollars  *schema.Dollars `json:"rfq_target_cost_dollars,omitempty"`
}

var quoteAcceptedRequired = []string{
	"quote_id", "rfq_id", "quote_creator_id", "market_ticker", "yes_bid", "no_bid",
	"yes_bid_dollars", "no_bid_dollars",
}

// QuoteExecuted announces that an accepted quote traded.
type QuoteExecuted struct {
	QuoteID        string `json:"quote_id"`
	RfqID          string `json:"rfq_id"`
	QuoteCreatorID string `json:"quote_creator_id"`
	RfqCreatorID   string `json:"rfq_creator_id"`
	OrderID        string `json:"order_id"`
	ClientOrderID  string `json:"client_order_id"`
	MarketTicker   string `json:"market_ticker"`
	ExecutedTS     string `json:"executed_ts"`
}

var quoteExecutedRequired = []string{
	"quote_id", "rfq_id", "quote_creator_id", "rfq_creator_id", "order_id",
	"client_order_id", "market_ticker", "executed_ts",
}

func (RfqCreated) communicationType() MsgType    { return TypeRfqCreated }
func (RfqDeleted) communicationType() MsgType    { return TypeRfqDeleted }
func (QuoteCreated) communicationType() MsgType  { return TypeQuoteCreated }
func (QuoteAccepted) communicationType() MsgType { return TypeQuoteAccepted }
func (QuoteExecuted) communicationType() MsgType { return TypeQuoteExecuted }
