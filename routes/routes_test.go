package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"rotibank-api/config"
	"rotibank-api/middleware"
	"rotibank-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:          "8080",
		GinMode:       gin.TestMode,
		DBPath:        filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:     "test_secret",
		TokenTTLHours: 24,
		AdminEmail:    "admin@rotibank.com",
		AdminPassword: "admin123",
	}
	db, err := config.OpenDB(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	SetupRoutes(r, db, cfg)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func registerUser(t *testing.T, r *gin.Engine, payload map[string]interface{}) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/register", "", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %v: status %d body %s", payload["email"], w.Code, w.Body.String())
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func registerRestaurant(t *testing.T, r *gin.Engine, email string) string {
	return registerUser(t, r, map[string]interface{}{
		"email": email, "password": "secret1", "user_type": "restaurant",
		"first_name": "Rena", "last_name": "Owner", "city": "Pune",
		"restaurant_name": "Spice House", "cuisine_type": "Indian",
	})
}

func registerVolunteer(t *testing.T, r *gin.Engine, email string) string {
	return registerUser(t, r, map[string]interface{}{
		"email": email, "password": "secret1", "user_type": "volunteer",
		"first_name": "Vik", "last_name": "Helper", "vehicle_type": "bike",
	})
}

func loginAdmin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email": "admin@rotibank.com", "password": "admin123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: status %d body %s", w.Code, w.Body.String())
	}
	return resp["token"].(string)
}

func createDonation(t *testing.T, r *gin.Engine, token, foodType string, quantity int) uint {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/food/donations", token, map[string]interface{}{
		"food_type": foodType, "quantity": quantity,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create donation: status %d body %s", w.Code, w.Body.String())
	}
	return uint(resp["donation_id"].(float64))
}

func donationStatus(t *testing.T, db *gorm.DB, id uint) models.DonationStatus {
	t.Helper()
	var donation models.FoodDonation
	if err := db.First(&donation, id).Error; err != nil {
		t.Fatalf("load donation %d: %v", id, err)
	}
	return donation.Status
}

// The full coordination scenario: restaurant lists food, volunteer claims
// it, picks it up and delivers it, earning the delivery award.
func TestDonationDeliveryScenario(t *testing.T) {
	r, db := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")
	volToken := registerVolunteer(t, r, "vik@example.com")

	donationID := createDonation(t, r, restToken, "Curry", 10)
	if got := donationStatus(t, db, donationID); got != models.DonationAvailable {
		t.Fatalf("new donation status = %s, want available", got)
	}

	var donation models.FoodDonation
	db.First(&donation, donationID)
	if donation.Quantity != 10 {
		t.Errorf("stored quantity = %d, want 10", donation.Quantity)
	}

	// Listing food credits the restaurant per meal
	var restaurant models.Restaurant
	db.First(&restaurant, donation.RestaurantID)
	if restaurant.Points != 100 || restaurant.TotalDonations != 10 {
		t.Errorf("restaurant credit = %d points / %d donations, want 100/10",
			restaurant.Points, restaurant.TotalDonations)
	}

	// Volunteer sees the donation and claims it
	w, resp := doJSON(t, r, http.MethodGet, "/api/users/available-donations", volToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available donations: status %d", w.Code)
	}
	if items := resp["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("available donations = %d, want 1", len(items))
	}

	w, resp = doJSON(t, r, http.MethodPost, "/api/users/request-pickup", volToken,
		map[string]interface{}{"donation_id": donationID, "notes": "ok"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request pickup: status %d body %s", w.Code, w.Body.String())
	}
	requestID := uint(resp["request_id"].(float64))

	if got := donationStatus(t, db, donationID); got != models.DonationClaimed {
		t.Fatalf("donation after claim = %s, want claimed", got)
	}

	// A claimed donation cannot take a second active request
	w, _ = doJSON(t, r, http.MethodPost, "/api/users/request-pickup", volToken,
		map[string]interface{}{"donation_id": donationID})
	if w.Code != http.StatusNotFound {
		t.Errorf("second request: status %d, want 404", w.Code)
	}

	// Claimant walks the lifecycle; donation follows
	statusPath := fmt.Sprintf("/api/food/pickup-requests/%d/status", requestID)

	w, _ = doJSON(t, r, http.MethodPut, statusPath, volToken, map[string]interface{}{"status": "accepted"})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodPut, statusPath, volToken, map[string]interface{}{"status": "picked_up"})
	if w.Code != http.StatusOK {
		t.Fatalf("pickup: status %d body %s", w.Code, w.Body.String())
	}
	if got := donationStatus(t, db, donationID); got != models.DonationPickedUp {
		t.Fatalf("donation after pickup = %s, want picked_up", got)
	}

	w, _ = doJSON(t, r, http.MethodPut, statusPath, volToken, map[string]interface{}{"status": "delivered"})
	if w.Code != http.StatusOK {
		t.Fatalf("deliver: status %d body %s", w.Code, w.Body.String())
	}
	if got := donationStatus(t, db, donationID); got != models.DonationDistributed {
		t.Fatalf("donation after delivery = %s, want distributed", got)
	}

	// Delivery credit lands exactly once
	var volunteer models.Volunteer
	db.First(&volunteer)
	if volunteer.Points != 5 || volunteer.TotalPickups != 1 {
		t.Errorf("volunteer credit = %d points / %d pickups, want 5/1",
			volunteer.Points, volunteer.TotalPickups)
	}

	// Terminal state rejects further transitions
	w, _ = doJSON(t, r, http.MethodPut, statusPath, volToken, map[string]interface{}{"status": "delivered"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("repeat delivery: status %d, want 422", w.Code)
	}
	db.First(&volunteer)
	if volunteer.Points != 5 {
		t.Errorf("points after repeat attempt = %d, want 5", volunteer.Points)
	}
}

// Restaurant force-advancing the donation drags the active request along,
// including the delivery credit.
func TestRestaurantDrivenSync(t *testing.T) {
	r, db := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")
	volToken := registerVolunteer(t, r, "vik@example.com")

	donationID := createDonation(t, r, restToken, "Rice", 4)
	w, resp := doJSON(t, r, http.MethodPost, "/api/users/request-pickup", volToken,
		map[string]interface{}{"donation_id": donationID})
	if w.Code != http.StatusCreated {
		t.Fatalf("request pickup: status %d", w.Code)
	}
	requestID := uint(resp["request_id"].(float64))

	donationPath := fmt.Sprintf("/api/food/donations/%d/status", donationID)

	w, _ = doJSON(t, r, http.MethodPut, donationPath, restToken, map[string]interface{}{"status": "picked_up"})
	if w.Code != http.StatusOK {
		t.Fatalf("force pickup: status %d body %s", w.Code, w.Body.String())
	}
	var request models.PickupRequest
	db.First(&request, requestID)
	if request.Status != models.RequestPickedUp {
		t.Fatalf("request after donation pickup = %s, want picked_up", request.Status)
	}

	w, _ = doJSON(t, r, http.MethodPut, donationPath, restToken, map[string]interface{}{"status": "distributed"})
	if w.Code != http.StatusOK {
		t.Fatalf("force distribute: status %d body %s", w.Code, w.Body.String())
	}
	db.First(&request, requestID)
	if request.Status != models.RequestDelivered {
		t.Fatalf("request after distribution = %s, want delivered", request.Status)
	}
	if request.DeliveryTime == nil {
		t.Error("delivery time should be stamped")
	}

	var volunteer models.Volunteer
	db.First(&volunteer)
	if volunteer.Points != 5 || volunteer.TotalPickups != 1 {
		t.Errorf("volunteer credit = %d points / %d pickups, want 5/1",
			volunteer.Points, volunteer.TotalPickups)
	}
}

func TestDonationTransitionGuard(t *testing.T) {
	r, db := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")
	donationID := createDonation(t, r, restToken, "Dal", 3)
	donationPath := fmt.Sprintf("/api/food/donations/%d/status", donationID)

	// available cannot jump straight to distributed
	w, _ := doJSON(t, r, http.MethodPut, donationPath, restToken, map[string]interface{}{"status": "distributed"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("skip transition: status %d, want 422", w.Code)
	}

	// unknown status fails request validation before any write
	w, _ = doJSON(t, r, http.MethodPut, donationPath, restToken, map[string]interface{}{"status": "vanished"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status string: status %d, want 400", w.Code)
	}
	if got := donationStatus(t, db, donationID); got != models.DonationAvailable {
		t.Errorf("donation mutated by rejected update: %s", got)
	}

	// explicit expiry is allowed before pickup
	w, _ = doJSON(t, r, http.MethodPut, donationPath, restToken, map[string]interface{}{"status": "expired"})
	if w.Code != http.StatusOK {
		t.Errorf("expire: status %d, want 200", w.Code)
	}
}

func TestOwnershipAndRoleBoundaries(t *testing.T) {
	r, db := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")
	otherRestToken := registerRestaurant(t, r, "other@example.com")
	volToken := registerVolunteer(t, r, "vik@example.com")
	otherVolToken := registerVolunteer(t, r, "nina@example.com")

	donationID := createDonation(t, r, restToken, "Curry", 2)
	donationPath := fmt.Sprintf("/api/food/donations/%d/status", donationID)

	// Non-owner restaurant is told nothing exists
	w, _ := doJSON(t, r, http.MethodPut, donationPath, otherRestToken, map[string]interface{}{"status": "claimed"})
	if w.Code != http.StatusNotFound {
		t.Errorf("non-owner donation update: status %d, want 404", w.Code)
	}

	// Volunteers have no donation mutation route at all
	w, _ = doJSON(t, r, http.MethodPut, donationPath, volToken, map[string]interface{}{"status": "claimed"})
	if w.Code != http.StatusForbidden {
		t.Errorf("volunteer donation update: status %d, want 403", w.Code)
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/food/donations", volToken,
		map[string]interface{}{"food_type": "Naan", "quantity": 1})
	if w.Code != http.StatusForbidden {
		t.Errorf("volunteer donation create: status %d, want 403", w.Code)
	}

	// Claim it as the first volunteer
	w, resp := doJSON(t, r, http.MethodPost, "/api/users/request-pickup", volToken,
		map[string]interface{}{"donation_id": donationID})
	if w.Code != http.StatusCreated {
		t.Fatalf("request pickup: status %d", w.Code)
	}
	requestID := uint(resp["request_id"].(float64))

	// Another volunteer can neither see nor move the request
	w, resp = doJSON(t, r, http.MethodGet, "/api/food/pickup-requests", otherVolToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list requests: status %d", w.Code)
	}
	if items := resp["items"].([]interface{}); len(items) != 0 {
		t.Errorf("other volunteer sees %d requests, want 0", len(items))
	}

	statusPath := fmt.Sprintf("/api/food/pickup-requests/%d/status", requestID)
	w, _ = doJSON(t, r, http.MethodPut, statusPath, otherVolToken, map[string]interface{}{"status": "accepted"})
	if w.Code != http.StatusNotFound {
		t.Errorf("other volunteer request update: status %d, want 404", w.Code)
	}

	// Sanity: the donation is untouched by all of the above
	if got := donationStatus(t, db, donationID); got != models.DonationClaimed {
		t.Errorf("donation status = %s, want claimed", got)
	}
}

func TestValidationFailures(t *testing.T) {
	r, _ := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"zero quantity", map[string]interface{}{"food_type": "Curry", "quantity": 0}},
		{"negative quantity", map[string]interface{}{"food_type": "Curry", "quantity": -3}},
		{"missing food type", map[string]interface{}{"quantity": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, r, http.MethodPost, "/api/food/donations", restToken, tt.payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	// Admin self-registration is rejected
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": "evil@example.com", "password": "secret1", "user_type": "admin",
		"first_name": "E", "last_name": "V",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("admin registration: status %d, want 400", w.Code)
	}

	// Duplicate email conflicts
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": "spice@example.com", "password": "secret1", "user_type": "volunteer",
		"first_name": "Du", "last_name": "Pe",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: status %d, want 409", w.Code)
	}
}

func TestProfileRoutes(t *testing.T) {
	r, _ := setupTest(t)

	volToken := registerVolunteer(t, r, "vik@example.com")

	w, resp := doJSON(t, r, http.MethodGet, "/api/auth/profile", volToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get profile: status %d", w.Code)
	}
	user := resp["user"].(map[string]interface{})
	if user["email"] != "vik@example.com" || user["user_type"] != "volunteer" {
		t.Errorf("profile user = %v", user)
	}
	if resp["profile"] == nil {
		t.Error("role profile missing from response")
	}

	w, _ = doJSON(t, r, http.MethodPut, "/api/users/profile", volToken,
		map[string]interface{}{"city": "Mumbai", "phone": "9999999999"})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: status %d body %s", w.Code, w.Body.String())
	}

	_, resp = doJSON(t, r, http.MethodGet, "/api/users/profile", volToken, nil)
	user = resp["user"].(map[string]interface{})
	if user["city"] != "Mumbai" {
		t.Errorf("city = %v, want Mumbai", user["city"])
	}
	if user["first_name"] != "Vik" {
		t.Errorf("untouched field changed: first_name = %v", user["first_name"])
	}
}

func TestStatsRoute(t *testing.T) {
	r, _ := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")
	volToken := registerVolunteer(t, r, "vik@example.com")

	donationID := createDonation(t, r, restToken, "Curry", 10)
	_, resp := doJSON(t, r, http.MethodPost, "/api/users/request-pickup", volToken,
		map[string]interface{}{"donation_id": donationID})
	requestID := uint(resp["request_id"].(float64))
	statusPath := fmt.Sprintf("/api/food/pickup-requests/%d/status", requestID)
	for _, s := range []string{"accepted", "picked_up", "delivered"} {
		if w, _ := doJSON(t, r, http.MethodPut, statusPath, volToken, map[string]interface{}{"status": s}); w.Code != http.StatusOK {
			t.Fatalf("transition %s: status %d", s, w.Code)
		}
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/users/stats", volToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("volunteer stats: status %d", w.Code)
	}
	stats := resp["stats"].(map[string]interface{})
	if stats["completed_pickups"].(float64) != 1 {
		t.Errorf("completed_pickups = %v, want 1", stats["completed_pickups"])
	}
	profile := stats["profile"].(map[string]interface{})
	if profile["points"].(float64) != 5 {
		t.Errorf("volunteer points = %v, want 5", profile["points"])
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/users/stats", restToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restaurant stats: status %d", w.Code)
	}
	stats = resp["stats"].(map[string]interface{})
	if stats["meals_donated"].(float64) != 10 {
		t.Errorf("meals_donated = %v, want 10", stats["meals_donated"])
	}
}

func TestPaginationEnvelope(t *testing.T) {
	r, _ := setupTest(t)

	restToken := registerRestaurant(t, r, "spice@example.com")
	for i := 0; i < 25; i++ {
		createDonation(t, r, restToken, "Meal", 1)
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/food/donations?page=2&limit=10", restToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list donations: status %d", w.Code)
	}
	if items := resp["items"].([]interface{}); len(items) != 10 {
		t.Errorf("page 2 size = %d, want 10", len(items))
	}
	p := resp["pagination"].(map[string]interface{})
	if p["page"].(float64) != 2 || p["limit"].(float64) != 10 ||
		p["total"].(float64) != 25 || p["pages"].(float64) != 3 {
		t.Errorf("pagination = %v, want page 2 limit 10 total 25 pages 3", p)
	}
}

func TestAdminWorkflows(t *testing.T) {
	r, db := setupTest(t)

	adminToken := loginAdmin(t, r)
	restToken := registerRestaurant(t, r, "spice@example.com")
	volToken := registerVolunteer(t, r, "vik@example.com")

	donationID := createDonation(t, r, restToken, "Curry", 8)
	doJSON(t, r, http.MethodPost, "/api/users/request-pickup", volToken,
		map[string]interface{}{"donation_id": donationID})

	// Non-admins are locked out
	w, _ := doJSON(t, r, http.MethodGet, "/api/admin/users", restToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("restaurant on admin route: status %d, want 403", w.Code)
	}

	// Dashboard rollups
	w, resp := doJSON(t, r, http.MethodGet, "/api/admin/dashboard", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d", w.Code)
	}
	totals := resp["totalStats"].(map[string]interface{})
	if totals["total_users"].(float64) != 3 {
		t.Errorf("total_users = %v, want 3", totals["total_users"])
	}
	donations := resp["donationStats"].(map[string]interface{})
	if donations["total_meals"].(float64) != 8 {
		t.Errorf("total_meals = %v, want 8", donations["total_meals"])
	}

	// User search
	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/users?user_type=volunteer", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users: status %d", w.Code)
	}
	if items := resp["items"].([]interface{}); len(items) != 1 {
		t.Errorf("volunteer filter = %d users, want 1", len(items))
	}

	// Deactivation locks the account out of login
	var volunteer models.User
	db.Where("email = ?", "vik@example.com").First(&volunteer)
	path := fmt.Sprintf("/api/admin/users/%d/status", volunteer.ID)
	w, _ = doJSON(t, r, http.MethodPut, path, adminToken, map[string]interface{}{"is_active": false})
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate: status %d body %s", w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email": "vik@example.com", "password": "secret1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("deactivated login: status %d, want 401", w.Code)
	}

	// Deleting the restaurant cascades to its donations and requests
	var owner models.User
	db.Where("email = ?", "spice@example.com").First(&owner)
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", owner.ID), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete user: status %d body %s", w.Code, w.Body.String())
	}
	var donationCount, requestCount, profileCount int64
	db.Model(&models.FoodDonation{}).Count(&donationCount)
	db.Model(&models.PickupRequest{}).Count(&requestCount)
	db.Model(&models.Restaurant{}).Count(&profileCount)
	if donationCount != 0 || requestCount != 0 || profileCount != 0 {
		t.Errorf("cascade left %d donations, %d requests, %d profiles",
			donationCount, requestCount, profileCount)
	}

	// Admin accounts are not deletable
	var admin models.User
	db.Where("user_type = ?", models.RoleAdmin).First(&admin)
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), adminToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("delete admin: status %d, want 403", w.Code)
	}

	// Every mutation above left an audit row
	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/logs", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logs: status %d", w.Code)
	}
	items := resp["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(items))
	}
	latest := items[0].(map[string]interface{})
	if latest["action"] != "delete_user" {
		t.Errorf("latest action = %v, want delete_user", latest["action"])
	}
	if latest["request_id"] == "" || latest["ip_address"] == "" {
		t.Error("audit row missing request correlation fields")
	}
}

func TestStateMachineInfoRoute(t *testing.T) {
	r, _ := setupTest(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/state-machine", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state machine info: status %d", w.Code)
	}
	if resp["donation_lifecycle"] == nil || resp["pickup_lifecycle"] == nil {
		t.Error("lifecycle definitions missing from response")
	}
}
