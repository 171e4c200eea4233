// Command classify-message runs the risk classifier as an AWS Lambda behind
// API Gateway, for deployments where the database webhook targets a function
// rather than the API server.
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/config"
	"mindwell/internal/logging"
	"mindwell/internal/risk"
	"mindwell/internal/services"
	"mindwell/internal/store"
)

type classifier struct {
	risk   *risk.Service
	secret string
	logger *zap.Logger
}

func header(h map[string]string, name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	return h[http.CanonicalHeaderKey(name)]
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func (c *classifier) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	got := header(request.Headers, "x-webhook-secret")
	if c.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(c.secret)) != 1 {
		return respond(http.StatusUnauthorized, `{"error":"unauthorized"}`), nil
	}

	trigger, err := risk.ParseTrigger([]byte(request.Body))
	if err != nil {
		body, _ := json.Marshal(map[string]string{"error": err.Error()})
		return respond(http.StatusBadRequest, string(body)), nil
	}

	res, err := c.risk.HandleTrigger(ctx, trigger)
	if err != nil {
		if apperr.IsInvalid(err) {
			body, _ := json.Marshal(map[string]string{"error": err.Error()})
			return respond(http.StatusBadRequest, string(body)), nil
		}
		c.logger.Error("classify message failed", zap.Error(err))
		return respond(http.StatusInternalServerError, `{"error":"server error"}`), nil
	}

	body, err := json.Marshal(res)
	if err != nil {
		return respond(http.StatusInternalServerError, `{"error":"server error"}`), nil
	}
	return respond(http.StatusOK, string(body)), nil
}

func newClassifier(ctx context.Context) (*classifier, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	// Webhook records carry the stored content, sealed when a key is set.
	encSvc, err := services.FromEncodedKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	conn, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	st := store.NewPostgres(conn, encSvc).WithLogger(logger)
	svc := risk.NewService(st, logger).WithOpener(encSvc)
	return &classifier{risk: svc, secret: cfg.WebhookSecret, logger: logger}, nil
}

func main() {
	c, err := newClassifier(context.Background())
	if err != nil {
		fmt.Printf("Error initializing classifier: %v\n", err)
		os.Exit(1)
	}
	lambda.Start(c.handle)
}
