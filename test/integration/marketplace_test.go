package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/campus-ticket-exchange/internal/adapters/mongo"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/campus-ticket-exchange/internal/adapters/redis"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	httphandler "github.com/robertarktes/campus-ticket-exchange/internal/http"
	"github.com/robertarktes/campus-ticket-exchange/internal/idempotency"
	"github.com/robertarktes/campus-ticket-exchange/internal/marketplace"
	"github.com/robertarktes/campus-ticket-exchange/internal/notify"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
	"github.com/robertarktes/campus-ticket-exchange/internal/rateLimit"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Terminate(ctx) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatal(err)
	}
	return host + ":" + mapped.Port()
}

func post(t *testing.T, url string, body interface{}, key string) (*http.Response, []byte) {
	t.Helper()
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func TestIntegration_ListingOfferNotify(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	crdbAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "cockroachdb/cockroach:v24.1.1",
		Cmd:          []string{"start-single-node", "--insecure"},
		ExposedPorts: []string{"26257/tcp", "8080/tcp"},
		WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
	}, "26257")
	mongoAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}, "27017")
	redisAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
	}, "6379")
	rabbitAddr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-management",
		ExposedPorts: []string{"5672/tcp", "15672/tcp"},
		WaitingFor:   wait.ForLog("Server startup complete"),
	}, "5672")

	logger := observability.NewNopLogger()

	pool, err := pgxpool.New(ctx, "postgresql://root@"+crdbAddr+"/defaultdb?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+mongoAddr))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("campus_tickets"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: redisAddr})
	defer redisClient.Close()
	redisCache := redisadapter.NewCache(redisClient)

	rabbitConn, err := amqp.Dial("amqp://guest:guest@" + rabbitAddr + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	pub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := rabbit.NewConsumer(rabbitConn, "it.notify.offers", rabbit.OfferSubmittedKey, 1)
	if err != nil {
		t.Fatal(err)
	}
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	deliveries, err := consumer.Consume(cctx)
	if err != nil {
		t.Fatal(err)
	}

	svc := marketplace.NewService(repo, repo, notify.NewQueueNotifier(pub), logger, marketplace.WithAuditor(audit))
	h := httphandler.NewHandlers(svc, map[string]httphandler.Pinger{"crdb": repo, "redis": redisCache})
	srv := httptest.NewServer(httphandler.SetupRouter(h, logger, httphandler.RouterOptions{
		Limiter:     rateLimit.NewRateLimiter(redisCache, logger),
		RatePerMin:  100,
		Idempotency: idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), time.Hour),
	}))
	defer srv.Close()

	resp, body := post(t, srv.URL+"/v1/listings", map[string]interface{}{
		"owner_identity": "seller@unl.edu",
		"title":          "Huskers vs Iowa",
		"category":       "Football",
		"price":          "40",
		"event_date":     time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	}, uuid.NewString())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create listing: %d %s", resp.StatusCode, body)
	}
	var l domain.Listing
	json.Unmarshal(body, &l)

	key := uuid.NewString()
	offer := map[string]interface{}{"listing_id": l.ID, "buyer_name": "Sam", "buyer_phone": "555-1111"}
	resp1, body1 := post(t, srv.URL+"/v1/offers", offer, key)
	resp2, body2 := post(t, srv.URL+"/v1/offers", offer, key)
	if resp1.StatusCode != http.StatusCreated || resp2.StatusCode != http.StatusCreated {
		t.Fatalf("submit offer: %d %s / %d %s", resp1.StatusCode, body1, resp2.StatusCode, body2)
	}
	if !bytes.Equal(body1, body2) {
		t.Errorf("idempotent replay differs")
	}

	offers, err := svc.ListOffersForSeller(ctx, "seller@unl.edu")
	if err != nil || len(offers) != 1 {
		t.Fatalf("seller offers = %v, %v", offers, err)
	}

	select {
	case d := <-deliveries:
		n, err := rabbit.DecodeOfferSubmitted(d.Body)
		if err != nil {
			t.Fatal(err)
		}
		if n.Recipient != "seller@unl.edu" || n.OfferID != offers[0].ID {
			t.Errorf("notice = %+v", n)
		}
		d.Ack(false)
	case <-time.After(10 * time.Second):
		t.Fatal("no offer.submitted event")
	}

	entries, err := audit.Recent(ctx, "seller@unl.edu", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Action != "listing.created" {
		t.Errorf("audit entries = %+v", entries)
	}

	resp, err = http.Get(srv.URL + "/v1/readyz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("readyz: %v %v", resp, err)
	}
}
