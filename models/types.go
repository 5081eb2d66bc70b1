package models

import "time"

// Order status constants (mirrors the orders.status CHECK constraint)
const (
	OrderCreated   = "CREATED"
	OrderApproved  = "APPROVED"
	OrderCompleted = "COMPLETED"
	OrderCanceled  = "CANCELED"
)

// Order providers
const (
	ProviderPayPal = "paypal"
	ProviderManual = "manual"
)

// Stream log status constants
const (
	StreamLive         = "LIVE"
	StreamDisconnected = "DISCONNECTED"
)

// Profile roles
const (
	RoleAdmin = "admin"
	RoleFan   = "fan"
)

// Trivia options
var TriviaOptions = []string{"A", "B", "C", "D"}

// Request types

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateCheckoutRequest struct {
	EventID string `json:"event_id"`
}

type CaptureRequest struct {
	OrderID string `json:"order_id"`
}

type StoreOrderRequest struct {
	Email   string  `json:"email"`
	EventID *string `json:"event_id,omitempty"`
	Amount  float64 `json:"amount"`
}

type PostMessageRequest struct {
	Message string `json:"message"`
}

type AnswerRequest struct {
	Option       string `json:"option"`
	AttemptToken string `json:"attempt_token"`
}

type EventRequest struct {
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	PPVPrice    float64   `json:"ppv_price"`
	TicketPrice float64   `json:"ticket_price"`
	IsActive    *bool     `json:"is_active,omitempty"`
	PlaybackID  *string   `json:"playback_id,omitempty"`
}

type MerchRequest struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Stock       *int    `json:"stock,omitempty" yaml:"stock"`
	IsActive    *bool   `json:"is_active,omitempty" yaml:"is_active"`
	ImageURL    string  `json:"image_url" yaml:"image_url"`
}

type TriviaQuestionRequest struct {
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	CoinReward    int    `json:"coin_reward"`
}

type CreateStreamRequest struct {
	ReconnectWindow  float64 `json:"reconnect_window,omitempty"`
	LatencyMode      string  `json:"latency_mode,omitempty"`
	Passthrough      string  `json:"passthrough,omitempty"`
	MaxContinuousSec int     `json:"max_continuous_duration,omitempty"`
}

// Response types

type AccessResponse struct {
	Authed    bool `json:"authed"`
	HasAccess bool `json:"hasAccess"`
}

type PlaybackResponse struct {
	PlaybackID  string `json:"playback_id"`
	PlaybackURL string `json:"playback_url"`
}

type CheckoutResponse struct {
	OrderID         string  `json:"order_id"`
	ProviderOrderID string  `json:"provider_order_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	ApproveURL      string  `json:"approve_url,omitempty"`
}

type CaptureResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ProfileResponse struct {
	UserID string  `json:"user_id"`
	Email  string  `json:"email"`
	Coins  int     `json:"coins"`
	Orders []Order `json:"orders"`
}

type TriviaQuestionResponse struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	CoinReward   int       `json:"coin_reward"`
	AttemptToken string    `json:"attempt_token"`
	Deadline     time.Time `json:"deadline"`
}

type AnswerResponse struct {
	Correct       bool   `json:"correct"`
	CorrectOption string `json:"correct_option"`
	CoinsAwarded  int    `json:"coins_awarded"`
	Message       string `json:"message"`
}

type DashboardResponse struct {
	Orders     []Order     `json:"orders"`
	PendingVOD []VODEdit   `json:"pending_vod"`
	StreamLogs []StreamLog `json:"stream_logs"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SeedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type ActivateStreamResponse struct {
	StreamID   string `json:"stream_id"`
	StreamKey  string `json:"stream_key"`
	PlaybackID string `json:"playback_id,omitempty"`
	RTMPURL    string `json:"rtmp_url"`
	Status     string `json:"status"`
}

type StreamStatusResponse struct {
	StreamID  string `json:"stream_id"`
	Status    string `json:"status"`
	LogStatus string `json:"log_status"`
}

type SchemaResponse struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// Domain types

type Profile struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name,omitempty"`
	Role        string  `json:"role"`
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	PPVPrice    float64   `json:"ppv_price"`
	TicketPrice float64   `json:"ticket_price"`
	IsActive    bool      `json:"is_active"`
	PlaybackID  *string   `json:"playback_id,omitempty"`
	StartsIn    string    `json:"starts_in,omitempty"`
}

type Order struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id,omitempty"`
	Email           string    `json:"email"`
	EventID         *string   `json:"event_id,omitempty"`
	Provider        string    `json:"provider"`
	ProviderOrderID *string   `json:"provider_order_id,omitempty"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	IPHash          *string   `json:"-"` // Never expose in JSON
	CreatedAt       time.Time `json:"created_at"`
}

type Merchandise struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       *int    `json:"stock,omitempty"`
	IsActive    bool    `json:"is_active"`
	ImageURL    *string `json:"image_url,omitempty"`
}

type ChatMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type TriviaQuestion struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
	CoinReward    int    `json:"coin_reward"`
	IsActive      bool   `json:"is_active"`
}

type StreamLog struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Bitrate   *int      `json:"bitrate,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Ago       string    `json:"ago,omitempty"`
}

type VODEdit struct {
	ID               string     `json:"id"`
	FileID           *string    `json:"file_id,omitempty"`
	Caption          string     `json:"caption"`
	IsLiveEdit       bool       `json:"is_live_edit"`
	Approved         bool       `json:"approved"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	NotificationSent bool       `json:"notification_sent"`
	SubmittedBy      *string    `json:"submitted_by,omitempty"`
	VideoURL         *string    `json:"video_url,omitempty"`
	ThumbnailURL     *string    `json:"thumbnail_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
