package api

// -- Stock --

type StockItem struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	CostPerUnit       float64 `json:"costPerUnit"`
	LowStockThreshold float64 `json:"lowStockThreshold"`
	SellingPrice      *Number `json:"sellingPrice,omitempty"`
	Status            string  `json:"status"`
}

type StockItemInput struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Quantity          Number  `json:"quantity"`
	Unit              string  `json:"unit"`
	CostPerUnit       Number  `json:"costPerUnit"`
	LowStockThreshold Number  `json:"lowStockThreshold"`
	SellingPrice      *Number `json:"sellingPrice,omitempty"`
}

type StockPurchase struct {
	QuantityAdded         Number `json:"quantity_added"`
	CostPerUnitOfPurchase Number `json:"cost_per_unit_of_purchase"`
}

type ListStockItemsRequest struct {
	Page     Page
	Search   string
	Category string
	Status   string
}

// -- Recipes --

type RecipeIngredient struct {
	StockItemID ID     `json:"stockItemId"`
	Quantity    Number `json:"quantity"`
}

type RecipeInput struct {
	Name         string             `json:"name"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	SellingPrice Number             `json:"sellingPrice"`
}

type Recipe struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Ingredients       []RecipeIngredient `json:"ingredients"`
	SellingPrice      float64            `json:"sellingPrice"`
	ManufacturingCost float64            `json:"manufacturingCost"`
	Profit            float64            `json:"profit"`
	Margin            float64            `json:"margin"`
}

type ListRecipesRequest struct {
	Page   Page
	Search string
}

// -- Invoices --

type InvoiceItem struct {
	ProductID   ID     `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    Number `json:"quantity"`
	Price       Number `json:"price"`
	Discount    Number `json:"discount"`
	GST         Number `json:"gst"`
}

// InvoiceInput carries either CustomerID or the walk-in customer fields.
// Subtotal, Discount, GST and Total are the caller's snapshot and are stored
// as sent.
type InvoiceInput struct {
	CustomerID          ID            `json:"customerId"`
	CustomerName        string        `json:"customerName"`
	CustomerEmail       string        `json:"customerEmail"`
	CustomerPhone       string        `json:"customerPhone"`
	CustomerAddress     string        `json:"customerAddress"`
	CustomerBirthday    string        `json:"customerBirthday"`
	CustomerAnniversary string        `json:"customerAnniversary"`
	Date                string        `json:"date"`
	Items               []InvoiceItem `json:"items"`
	Subtotal            Number        `json:"subtotal"`
	Discount            Number        `json:"discount"`
	GST                 Number        `json:"gst"`
	Total               Number        `json:"total"`
	PaymentStatus       string        `json:"paymentStatus"`
	OrderType           string        `json:"orderType"`
	Notes               string        `json:"notes"`
	AmountPaid          Number        `json:"amountPaid"`
}

type InvoiceSummary struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	GSTAmount      float64 `json:"gstAmount"`
	GrandTotal     float64 `json:"grandTotal"`
	BalanceDue     float64 `json:"balanceDue"`
	Settled        bool    `json:"settled"`
}

// Invoice carries the walk-in customer bundle as it was entered.
type Invoice struct {
	ID                  int64          `json:"id"`
	InvoiceNumber       string         `json:"invoiceNumber"`
	CustomerID          int64          `json:"customerId"`
	CustomerName        string         `json:"customerName"`
	CustomerPhone       string         `json:"customerPhone,omitempty"`
	CustomerEmail       string         `json:"customerEmail,omitempty"`
	CustomerAddress     string         `json:"customerAddress,omitempty"`
	CustomerBirthday    string         `json:"customerBirthday,omitempty"`
	CustomerAnniversary string         `json:"customerAnniversary,omitempty"`
	Date                string         `json:"date"`
	Items               []InvoiceItem  `json:"items"`
	Subtotal            float64        `json:"subtotal"`
	Discount            float64        `json:"discount"`
	GST                 float64        `json:"gst"`
	Total               float64        `json:"total"`
	PaymentStatus       string         `json:"paymentStatus"`
	OrderType           string         `json:"orderType"`
	Notes               string         `json:"notes"`
	AmountPaid          float64        `json:"amountPaid"`
	Summary             InvoiceSummary `json:"summary"`
}

type ListInvoicesRequest struct {
	Page   Page
	Search string
	Status string
}

// -- Customers --

type Customer struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Birthday    string `json:"birthday"`
	Anniversary string `json:"anniversary"`
}

type CustomerInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Birthday    string `json:"birthday"`
	Anniversary string `json:"anniversary"`
}

type ListCustomersRequest struct {
	Page   Page
	Search string
}

// -- Auth --

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// UpcomingEvent is a birthday or anniversary falling inside the reminder
// window. Date is the stored date, NextDate its next occurrence.
type UpcomingEvent struct {
	CustomerID   int64  `json:"customerId"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone,omitempty"`
	Kind         string `json:"kind"`
	Date         string `json:"date"`
	NextDate     string `json:"nextDate"`
	DaysUntil    int    `json:"daysUntil"`
}

type LoginRequest struct {
	Username string
	Password string
}
