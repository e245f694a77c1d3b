package web

// AreaResponse успешный ответ /calculate_area
type AreaResponse struct {
	Area        float64 `json:"area"`         // см²
	ImageBase64 string  `json:"image_base64"` // JPEG превью
	BlackPixels int64   `json:"black_pixels"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	DPI         float64 `json:"dpi"`
}

// ErrorResponse ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// HealthResponse ответ /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	Converter string `json:"converter,omitempty"`
}
