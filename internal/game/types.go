package game

type ProductSales struct {
	StoreID   int     `json:"store_id"`
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

type ExpenseLine struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Rent     float64 `json:"rent"`
	Salaries float64 `json:"salaries"`
}

func (e ExpenseLine) Total() float64 {
	return e.Rent + e.Salaries
}

type LoanPayment struct {
	LoanID int     `json:"loan_id"`
	Amount float64 `json:"amount"`
}

type LoanDue struct {
	LoanID  int     `json:"loan_id"`
	Balance float64 `json:"balance"`
}

type LoanDueSoon struct {
	LoanID        int     `json:"loan_id"`
	DaysRemaining int     `json:"days_remaining"`
	Balance       float64 `json:"balance"`
}

type AutoTransfer struct {
	Factory  string `json:"factory"`
	Store    string `json:"store"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// DayResult is everything that happened during one advance of the clock.
type DayResult struct {
	Day int `json:"day"`

	TotalRevenue   float64        `json:"total_revenue"`
	TotalItemsSold int            `json:"total_items_sold"`
	SalesByProduct []ProductSales `json:"sales_by_product"`

	TotalExpenses     float64       `json:"total_expenses"`
	ExpensesByStore   []ExpenseLine `json:"expenses_by_store"`
	ExpensesByFactory []ExpenseLine `json:"expenses_by_factory"`

	ProductionCompleted []ProductionResult `json:"production_completed"`
	AutoTransfers       []AutoTransfer     `json:"auto_transfers"`

	NetProfit float64 `json:"net_profit"`

	EconomicState  EconomicState `json:"economic_state"`
	EconomicChange string        `json:"economic_change,omitempty"`

	LoanInterestAccrued float64       `json:"loan_interest_accrued"`
	LoanPayments        []LoanPayment `json:"loan_payments"`
	LoansDue            []LoanDue     `json:"loans_due"`
	LoansDueSoon        []LoanDueSoon `json:"loans_due_soon"`
	TermLoanPenalties   float64       `json:"term_loan_penalties"`

	CompetitorEvents  []string `json:"competitor_events"`
	PlayerMarketShare float64  `json:"player_market_share"`

	StockChanges    []StockChange `json:"stock_changes"`
	DividendsEarned float64       `json:"dividends_earned"`

	CashAfter float64 `json:"cash_after"`
	Bankrupt  bool    `json:"bankrupt"`
}

type Status struct {
	Day                int           `json:"day"`
	Cash               float64       `json:"cash"`
	NetWorth           float64       `json:"net_worth"`
	TotalDebt          float64       `json:"total_debt"`
	MaxBorrowable      float64       `json:"max_borrowable"`
	DailyExpenses      float64       `json:"daily_expenses"`
	PortfolioValue     float64       `json:"portfolio_value"`
	Economy            EconomicState `json:"economy"`
	EconomyDescription string        `json:"economy_description"`
	MarketShare        float64       `json:"market_share"`
	CurrentStore       int           `json:"current_store"`
	CurrentFactory     *int          `json:"current_factory,omitempty"`
	StoreCount         int           `json:"store_count"`
	FactoryCount       int           `json:"factory_count"`
	LoanCount          int           `json:"loan_count"`
	Bankrupt           bool          `json:"bankrupt"`
}

type PriceQuote struct {
	ProductID       int         `json:"product_id"`
	Name            string      `json:"name"`
	Category        Category    `json:"category"`
	Type            ProductType `json:"type"`
	BasePrice       float64     `json:"base_price"`
	Wholesale       float64     `json:"wholesale"`
	SuggestedRetail float64     `json:"suggested_retail"`
}

type LoanRate struct {
	Type        LoanType `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Days        int      `json:"days,omitempty"`
	Rate        float64  `json:"rate"`
}

type StockQuote struct {
	ID            int       `json:"id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Type          StockType `json:"type"`
	Price         float64   `json:"price"`
	TrendPercent  float64   `json:"trend_percent"`
	Indicator     string    `json:"indicator"`
	DailyDividend float64   `json:"daily_dividend"`
}

type PortfolioLine struct {
	StockID         int     `json:"stock_id"`
	Symbol          string  `json:"symbol"`
	Shares          int     `json:"shares"`
	AvgPrice        float64 `json:"avg_price"`
	Price           float64 `json:"price"`
	Value           float64 `json:"value"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
	Dividends       float64 `json:"dividends"`
}

type CompetitorView struct {
	Name         string          `json:"name"`
	Stores       int             `json:"stores"`
	Quality      float64         `json:"quality"`
	Strategy     PricingStrategy `json:"strategy"`
	Power        float64         `json:"power"`
	Share        float64         `json:"share"`
	MarketLeader bool            `json:"market_leader"`
}

type InventoryLine struct {
	ProductID   int     `json:"product_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	RetailPrice float64 `json:"retail_price"`
	Wholesale   float64 `json:"wholesale"`
	Markup      float64 `json:"markup"`
}

type StoreView struct {
	Index            int             `json:"index"`
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	Current          bool            `json:"current"`
	Employees        []Employee      `json:"employees"`
	Customers        int             `json:"customers"`
	DailyExpenses    float64         `json:"daily_expenses"`
	InventoryValue   float64         `json:"inventory_value"`
	Inventory        []InventoryLine `json:"inventory"`
	ConnectedFactory bool            `json:"connected_to_current_factory"`
}

type StockLine struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type FactoryView struct {
	Index           int             `json:"index"`
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Current         bool            `json:"current"`
	Workers         []Worker        `json:"workers"`
	Slots           int             `json:"slots"`
	AvailableSlots  int             `json:"available_slots"`
	Queue           []ProductionJob `json:"queue"`
	RawMaterials    []StockLine     `json:"raw_materials"`
	FinishedGoods   []StockLine     `json:"finished_goods"`
	ConnectedStores []int           `json:"connected_stores"`
	AutoTransfer    bool            `json:"auto_transfer"`
	DailyExpenses   float64         `json:"daily_expenses"`
}

type LoanView struct {
	ID            int      `json:"id"`
	Type          LoanType `json:"type"`
	Name          string   `json:"name"`
	Principal     float64  `json:"principal"`
	Balance       float64  `json:"balance"`
	Rate          string   `json:"rate"`
	DaysRemaining int      `json:"days_remaining,omitempty"`
	DailyPayment  float64  `json:"daily_payment,omitempty"`
	Due           bool     `json:"due"`
}

// RecipePlan says how much of a recipe the current factory can start now.
type RecipePlan struct {
	RecipeID      int          `json:"recipe_id"`
	Name          string       `json:"name"`
	Output        string       `json:"output"`
	Days          int          `json:"days"`
	Ingredients   []Ingredient `json:"ingredients"`
	MaterialCost  float64      `json:"material_cost"`
	OutputValue   float64      `json:"output_value"`
	MaxProducible int          `json:"max_producible"`
	Missing       []Shortfall  `json:"missing,omitempty"`
}

// Command is one player action in wire form. Only the fields an action
// reads need to be set.
type Command struct {
	Action    string  `json:"action"`
	ProductID int     `json:"product_id,omitempty"`
	RecipeID  int     `json:"recipe_id,omitempty"`
	StockID   int     `json:"stock_id,omitempty"`
	LoanID    int     `json:"loan_id,omitempty"`
	Index     int     `json:"index,omitempty"`
	Quantity  int     `json:"quantity,omitempty"`
	Days      int     `json:"days,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Name      string  `json:"name,omitempty"`
}

const (
	ActionBuyInventory       = "buy_inventory"
	ActionSetPrice           = "set_price"
	ActionBuyStore           = "buy_store"
	ActionSwitchStore        = "switch_store"
	ActionHireEmployee       = "hire_employee"
	ActionFireEmployee       = "fire_employee"
	ActionBuyFactory         = "buy_factory"
	ActionSwitchFactory      = "switch_factory"
	ActionBuyRawMaterials    = "buy_raw_materials"
	ActionStartProduction    = "start_production"
	ActionTransferToStore    = "transfer_to_store"
	ActionConnectStore       = "connect_store"
	ActionDisconnectStore    = "disconnect_store"
	ActionToggleAutoTransfer = "toggle_auto_transfer"
	ActionHireWorker         = "hire_worker"
	ActionFireWorker         = "fire_worker"
	ActionTakeFlexibleLoan   = "take_flexible_loan"
	ActionTakeLineOfCredit   = "take_line_of_credit"
	ActionTakeTermLoan       = "take_term_loan"
	ActionPayLoan            = "pay_loan"
	ActionBuyStock           = "buy_stock"
	ActionSellStock          = "sell_stock"
	ActionAdvanceDay         = "advance_day"
)

// Receipt is the success payload of a command: what it cost or paid out,
// the id it created or touched, and how many units actually moved.
type Receipt struct {
	Action   string   `json:"action"`
	Message  string   `json:"message"`
	Cost     float64  `json:"cost,omitempty"`
	Proceeds float64  `json:"proceeds,omitempty"`
	ID       int      `json:"id,omitempty"`
	Quantity int      `json:"quantity,omitempty"`
	Events   []string `json:"events,omitempty"`
}

type ApplyInput struct {
	SessionID      string
	Command        Command
	IdempotencyKey string
}
