package consumer

import (
	"testing"

	"github.com/giobyte8/newsroom/internal/config"
	"github.com/giobyte8/newsroom/internal/services"
)

func TestDecodeThumbRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			"valid",
			`{"thumbRequestId":"0b7e4c9a-3f7e-4d0a-9c55-2f1f6f0b8d11","field":"news.entry.image","fileName":"news/photo.jpg"}`,
			false,
		},
		{"missing file name", `{"field":"news.entry.image"}`, true},
		{"missing field", `{"fileName":"news/photo.jpg"}`, true},
		{"malformed", `{"field":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeThumbRequest([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeThumbRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (req.Field != "news.entry.image" || req.FileName != "news/photo.jpg") {
				t.Errorf("decodeThumbRequest() = %+v", req)
			}
		})
	}
}

func TestNewAMQPConsumer_ValidatesConfig(t *testing.T) {
	valid := config.AMQPConfig{
		Host:               "localhost",
		Port:               "5672",
		Exchange:           "newsroom",
		ThumbsGenQueueName: "thumbs.gen",
		ThumbsDelQueueName: "thumbs.del",
	}
	svc := services.NewThumbnailsService()

	if _, err := NewAMQPConsumer(valid, svc, nil); err != nil {
		t.Fatalf("NewAMQPConsumer() error = %v", err)
	}

	noExchange := valid
	noExchange.Exchange = ""
	if _, err := NewAMQPConsumer(noExchange, svc, nil); err == nil {
		t.Error("expected error for missing exchange")
	}

	noQueue := valid
	noQueue.ThumbsDelQueueName = ""
	if _, err := NewAMQPConsumer(noQueue, svc, nil); err == nil {
		t.Error("expected error for missing delete queue")
	}
}
