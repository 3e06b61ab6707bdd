package engine

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"dataspace-connector/internal/metadata"
	"dataspace-connector/internal/store"
)

const base = "/api/management"

func newTestApp(t *testing.T) (*fiber.App, *store.Stores) {
	t.Helper()
	s := weatherStores(t)
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(nil)})
	h := NewHandler(s, NewCatalogMatcher(s.ContractDefinitions, s.Policies), nil)
	RegisterManagementRoutes(app, base, h)
	return app, s
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func doList(t *testing.T, app *fiber.App, path, body string) (int, []map[string]any) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out []map[string]any
	if resp.StatusCode == fiber.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestGetAsset(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, base+"/v3/assets/weather-api-asset", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["@id"] != "weather-api-asset" || body["@type"] != TypeAsset {
		t.Errorf("unexpected identity: %v / %v", body["@id"], body["@type"])
	}
	if _, ok := body["@context"]; !ok {
		t.Error("missing @context")
	}
	props, _ := body["properties"].(map[string]any)
	if props["name"] != "Public Weather API" {
		t.Errorf("properties = %v", props)
	}
	addr, _ := body["dataAddress"].(map[string]any)
	if addr["@type"] != TypeDataAddress || addr["type"] != "HttpData" {
		t.Errorf("dataAddress = %v", addr)
	}

	status, body = do(t, app, http.MethodGet, base+"/v3/assets/this-asset-does-not-exist", "")
	if status != fiber.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Errorf("missing asset: %d %v", status, body)
	}
}

func TestCreateAsset(t *testing.T) {
	app, s := newTestApp(t)
	payload := `{
		"@context": {"edc": "https://w3id.org/edc/v0.0.1/ns/"},
		"@id": "test-asset",
		"properties": {"name": "Test Asset", "contenttype": "application/json"},
		"dataAddress": {"@type": "DataAddress", "type": "HttpData", "baseUrl": "https://jsonplaceholder.typicode.com/posts"}
	}`

	status, body := do(t, app, http.MethodPost, base+"/v3/assets", payload)
	if status != fiber.StatusOK {
		t.Fatalf("create status = %d, body = %v", status, body)
	}
	if body["@id"] != "test-asset" || body["@type"] != TypeIDResponse {
		t.Errorf("id response = %v", body)
	}
	if _, ok := body["createdAt"].(float64); !ok {
		t.Errorf("createdAt missing: %v", body)
	}

	stored, err := s.Assets.Get(t.Context(), "test-asset")
	if err != nil {
		t.Fatal(err)
	}
	if stored.DataAddress.Type != "HttpData" || stored.DataAddress.Properties["baseUrl"] != "https://jsonplaceholder.typicode.com/posts" {
		t.Errorf("data address = %+v", stored.DataAddress)
	}
	if _, ok := stored.DataAddress.Properties["@type"]; ok {
		t.Error("@type must not be stored as a data address property")
	}

	status, body = do(t, app, http.MethodPost, base+"/v3/assets", payload)
	if status != fiber.StatusConflict || errorCode(body) != "CONFLICT" {
		t.Errorf("duplicate: %d %v", status, body)
	}
}

func TestCreateAssetGeneratesID(t *testing.T) {
	app, s := newTestApp(t)
	status, body := do(t, app, http.MethodPost, base+"/v3/assets", `{"properties": {"name": "anonymous"}, "dataAddress": {"type": "HttpData"}}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	id, _ := body["@id"].(string)
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if _, err := s.Assets.Get(t.Context(), id); err != nil {
		t.Errorf("generated asset not stored: %v", err)
	}
}

func TestCreateInvalidPayload(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := do(t, app, http.MethodPost, base+"/v3/assets", `{"@id": `)
	if status != fiber.StatusBadRequest || errorCode(body) != "INVALID_PAYLOAD" {
		t.Errorf("malformed JSON: %d %v", status, body)
	}
	status, body = do(t, app, http.MethodPost, base+"/v3/assets", "")
	if status != fiber.StatusBadRequest || errorCode(body) != "INVALID_PAYLOAD" {
		t.Errorf("empty body: %d %v", status, body)
	}
}

func TestUpdateAndDeleteAsset(t *testing.T) {
	app, s := newTestApp(t)

	status, _ := do(t, app, http.MethodPut, base+"/v3/assets/weather-api-asset",
		`{"@id": "weather-api-asset", "properties": {"name": "Renamed"}, "dataAddress": {"type": "HttpData"}}`)
	if status != fiber.StatusNoContent {
		t.Fatalf("update status = %d", status)
	}
	a, _ := s.Assets.Get(t.Context(), "weather-api-asset")
	if a.Name() != "Renamed" {
		t.Errorf("name = %s", a.Name())
	}

	status, _ = do(t, app, http.MethodPut, base+"/v3/assets",
		`{"@id": "weather-api-asset", "properties": {"name": "Via body id"}, "dataAddress": {"type": "HttpData"}}`)
	if status != fiber.StatusNoContent {
		t.Fatalf("update by body id status = %d", status)
	}

	status, body := do(t, app, http.MethodPut, base+"/v3/assets/weather-api-asset",
		`{"@id": "someone-else", "dataAddress": {"type": "HttpData"}}`)
	if status != fiber.StatusBadRequest || errorCode(body) != "ID_MISMATCH" {
		t.Errorf("mismatch: %d %v", status, body)
	}

	status, body = do(t, app, http.MethodPut, base+"/v3/assets/ghost", `{"dataAddress": {"type": "HttpData"}}`)
	if status != fiber.StatusNotFound {
		t.Errorf("update missing: %d %v", status, body)
	}

	status, _ = do(t, app, http.MethodDelete, base+"/v3/assets/weather-api-asset", "")
	if status != fiber.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	status, _ = do(t, app, http.MethodDelete, base+"/v3/assets/weather-api-asset", "")
	if status != fiber.StatusNotFound {
		t.Errorf("second delete status = %d", status)
	}
}

func TestQueryAssets(t *testing.T) {
	app, _ := newTestApp(t)

	status, items := doList(t, app, base+"/v3/assets/request", "")
	if status != fiber.StatusOK || len(items) != 2 {
		t.Fatalf("query all: %d, %d items", status, len(items))
	}

	status, items = doList(t, app, base+"/v3/assets/request", `{
		"@type": "QuerySpec",
		"filterExpression": [{"operandLeft": "https://w3id.org/edc/v0.0.1/ns/id", "operator": "=", "operandRight": "other-asset"}]
	}`)
	if status != fiber.StatusOK || len(items) != 1 || items[0]["@id"] != "other-asset" {
		t.Errorf("filtered query: %d %v", status, items)
	}

	status, items = doList(t, app, base+"/v3/assets/request", `{"offset": 1, "limit": 5}`)
	if status != fiber.StatusOK || len(items) != 1 || items[0]["@id"] != "other-asset" {
		t.Errorf("paged query: %d %v", status, items)
	}

	status, _ = doList(t, app, base+"/v3/assets/request", `{"filterExpression": {"operandLeft": "id", "operator": "between", "operandRight": "x"}}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("unsupported operator status = %d", status)
	}
}

func TestPolicyDefinitionEndpoints(t *testing.T) {
	app, s := newTestApp(t)

	status, body := do(t, app, http.MethodGet, base+"/v3/policydefinitions/allow-all-policy", "")
	if status != fiber.StatusOK || body["@type"] != TypePolicyDefinition {
		t.Fatalf("get: %d %v", status, body)
	}
	policy, _ := body["policy"].(map[string]any)
	if policy["@type"] != metadata.PolicyTypeSet {
		t.Errorf("policy = %v", policy)
	}

	status, _ = do(t, app, http.MethodPost, base+"/v3/policydefinitions", `{
		"@id": "research-only",
		"policy": {"permission": [{"action": "use", "constraint": [{"leftOperand": "purpose", "operator": "eq", "rightOperand": "research"}]}]}
	}`)
	if status != fiber.StatusOK {
		t.Fatalf("create status = %d", status)
	}
	p, err := s.Policies.Get(t.Context(), "research-only")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Policy.Permissions) != 1 || p.Policy.Permissions[0].Constraints[0].RightOperand != "research" {
		t.Errorf("stored policy = %+v", p.Policy)
	}
}

func TestContractDefinitionEndpoints(t *testing.T) {
	app, s := newTestApp(t)

	status, body := do(t, app, http.MethodGet, base+"/v3/contractdefinitions/weather-contract-def", "")
	if status != fiber.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if body["accessPolicyId"] != "allow-all-policy" || body["contractPolicyId"] != "allow-all-policy" {
		t.Errorf("policy links = %v / %v", body["accessPolicyId"], body["contractPolicyId"])
	}
	selector, _ := body["assetsSelector"].([]any)
	if len(selector) != 1 {
		t.Fatalf("assetsSelector = %v", body["assetsSelector"])
	}
	if c, _ := selector[0].(map[string]any); c["@type"] != TypeCriterion || c["operandRight"] != "weather-api-asset" {
		t.Errorf("criterion = %v", c)
	}

	// A single criterion object is accepted and policy ids may dangle.
	status, _ = do(t, app, http.MethodPost, base+"/v3/contractdefinitions", `{
		"@id": "future-def",
		"accessPolicyId": "not-yet-created",
		"contractPolicyId": "not-yet-created",
		"assetsSelector": {"operandLeft": "category", "operator": "in", "operandRight": ["weather", "climate"]}
	}`)
	if status != fiber.StatusOK {
		t.Fatalf("create status = %d", status)
	}
	d, err := s.ContractDefinitions.Get(t.Context(), "future-def")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.AssetsSelector) != 1 || d.AssetsSelector[0].Operator != "in" {
		t.Errorf("selector = %+v", d.AssetsSelector)
	}

	status, body = do(t, app, http.MethodPost, base+"/v3/contractdefinitions", `{
		"@id": "bad-op",
		"accessPolicyId": "p",
		"contractPolicyId": "p",
		"assetsSelector": [{"operandLeft": "category", "operator": "regex", "operandRight": ".*"}]
	}`)
	if status != fiber.StatusUnprocessableEntity || errorCode(body) != "VALIDATION_FAILED" {
		t.Errorf("unsupported selector operator: %d %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, base+"/v3/contractdefinitions", `{"@id": "no-policies"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Errorf("missing policy ids: %d %v", status, body)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, base+"/v3/catalog/request", "")
	if status != fiber.StatusOK || body["@type"] != TypeCatalog {
		t.Fatalf("catalog: %d %v", status, body)
	}
	datasets, _ := body["dcat:dataset"].([]any)
	if len(datasets) != 1 {
		t.Fatalf("datasets = %v", body["dcat:dataset"])
	}
	ds, _ := datasets[0].(map[string]any)
	if ds["@id"] != "weather-api-asset" || ds["@type"] != TypeDataset {
		t.Errorf("dataset = %v", ds)
	}
	offers, _ := ds["odrl:hasPolicy"].([]any)
	if len(offers) != 1 {
		t.Fatalf("offers = %v", ds["odrl:hasPolicy"])
	}
	offer, _ := offers[0].(map[string]any)
	if offer["@id"] != OfferID("weather-contract-def", "weather-api-asset") || offer["contractDefinitionId"] != "weather-contract-def" {
		t.Errorf("offer = %v", offer)
	}

	status, body = do(t, app, http.MethodPost, base+"/v3/catalog/dataset/request", `{"@id": "weather-api-asset"}`)
	if status != fiber.StatusOK || body["@id"] != "weather-api-asset" {
		t.Errorf("dataset: %d %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, base+"/v3/catalog/dataset/request", `{"@id": "other-asset"}`)
	if status != fiber.StatusOK {
		t.Fatalf("dataset without offers: %d", status)
	}
	if offers, _ := body["odrl:hasPolicy"].([]any); len(offers) != 0 {
		t.Errorf("other-asset offers = %v", offers)
	}

	status, body = do(t, app, http.MethodPost, base+"/v3/catalog/dataset/request", `{"@id": "nope"}`)
	if status != fiber.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Errorf("missing dataset: %d %v", status, body)
	}

	status, _ = do(t, app, http.MethodPost, base+"/v3/catalog/dataset/request", `{}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("dataset without id: %d", status)
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := do(t, app, http.MethodGet, "/health", "")
	if status != fiber.StatusOK || body["status"] != "ok" || body["store"] != store.DriverMemory {
		t.Errorf("health: %d %v", status, body)
	}
}
