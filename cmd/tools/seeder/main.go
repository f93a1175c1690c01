// Seeder loads a starter dataset for a fresh install: an admin with a known
// PIN, a small Shinwari menu and the inventory items its recipes deduct from.
// Safe to re-run; every insert is idempotent.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/shinwari-dera/backend-pos/internal/menu"
	"github.com/shinwari-dera/backend-pos/internal/staff"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	seedStaff(ctx, pool)
	seedInventory(ctx, pool)
	seedMenu(ctx, pool)

	log.Println("seeding completed")
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool) {
	adminPIN := os.Getenv("SEED_ADMIN_PIN")
	if adminPIN == "" {
		adminPIN = "1234"
	}

	members := []struct {
		Name  string
		Role  string
		PIN   string
		Perms []string
	}{
		{"Haji Karim", staff.RoleAdmin, adminPIN, []string{
			staff.PermViewDashboard, staff.PermViewReports, staff.PermManageInventory,
			staff.PermManageMenu, staff.PermManageExpenses, staff.PermManageSettings,
			staff.PermProcessRefund, staff.PermAdjustStock, staff.PermAccessPOS,
			staff.PermAccessKitchen,
		}},
		{"Rashid Khan", staff.RoleCashier, "2580", []string{
			staff.PermAccessPOS, staff.PermViewDashboard,
		}},
		{"Gul Zaman", staff.RoleKitchen, "7913", []string{
			staff.PermAccessKitchen,
		}},
	}

	log.Println("seeding staff...")
	for _, m := range members {
		hash, err := argon2id.CreateHash(m.PIN, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("hash pin for %s: %v", m.Name, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO staff (name, role, permissions, active, pin_hash)
			SELECT $1, $2, $3, true, $4
			WHERE NOT EXISTS (SELECT 1 FROM staff WHERE name = $1)`,
			m.Name, m.Role, m.Perms, hash)
		if err != nil {
			log.Printf("seed staff %s: %v", m.Name, err)
		}
	}
}

func seedInventory(ctx context.Context, pool *pgxpool.Pool) {
	items := []struct {
		ID        string
		Name      string
		Unit      string
		Category  string
		Quantity  float64
		Threshold float64
		CostPrice float64
	}{
		{"chicken", "Chicken", "kg", "Meat", 40, 10, 620},
		{"mutton", "Mutton", "kg", "Meat", 25, 8, 2100},
		{"tomatoes", "Tomatoes", "kg", "Vegetables", 30, 10, 120},
		{"green-chili", "Green Chili", "kg", "Vegetables", 5, 2, 200},
		{"flour", "Naan Flour", "kg", "Grocery", 50, 15, 95},
		{"cooking-oil", "Cooking Oil", "litre", "Grocery", 20, 5, 480},
		{"yogurt", "Yogurt", "kg", "Grocery", 12, 4, 220},
	}

	log.Println("seeding inventory...")
	for _, it := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO inventory_items (id, name, unit, category, quantity, threshold, cost_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING`,
			it.ID, it.Name, it.Unit, it.Category, it.Quantity, it.Threshold, it.CostPrice)
		if err != nil {
			log.Printf("seed inventory %s: %v", it.ID, err)
		}
	}
}

func seedMenu(ctx context.Context, pool *pgxpool.Pool) {
	store := menu.Store{Pool: pool}
	items := []menu.Item{
		{
			ID: "chicken-karahi", Name: "Chicken Karahi", UrduName: "چکن کڑاہی",
			Price: 1200, Category: "Karahi", Station: "karahi", Available: true,
			IsSpicy: true, IsBestseller: true, PrepTimeMin: 25,
			Variations: []menu.Variation{
				{ID: "half", Name: "Half", Price: 1200},
				{ID: "full", Name: "Full", Price: 2200},
			},
			Addons: []menu.Addon{{Name: "Extra Naan", Price: 60}},
			Recipe: []menu.Ingredient{
				{InventoryItemID: "chicken", Quantity: 0.5},
				{InventoryItemID: "tomatoes", Quantity: 0.3},
				{InventoryItemID: "cooking-oil", Quantity: 0.1},
			},
		},
		{
			ID: "mutton-karahi", Name: "Mutton Karahi", UrduName: "مٹن کڑاہی",
			Price: 2000, Category: "Karahi", Station: "karahi", Available: true,
			IsSpicy: true, PrepTimeMin: 35,
			Variations: []menu.Variation{
				{ID: "half", Name: "Half", Price: 2000},
				{ID: "full", Name: "Full", Price: 3800},
			},
			Recipe: []menu.Ingredient{
				{InventoryItemID: "mutton", Quantity: 0.5},
				{InventoryItemID: "tomatoes", Quantity: 0.3},
				{InventoryItemID: "cooking-oil", Quantity: 0.1},
			},
		},
		{
			ID: "chicken-tikka", Name: "Chicken Tikka", UrduName: "چکن تکہ",
			Price: 450, Category: "BBQ", Station: "bbq", Available: true,
			IsSpicy: true, PrepTimeMin: 20,
			Recipe: []menu.Ingredient{
				{InventoryItemID: "chicken", Quantity: 0.35},
				{InventoryItemID: "yogurt", Quantity: 0.05},
			},
		},
		{
			ID: "roghni-naan", Name: "Roghni Naan", UrduName: "روغنی نان",
			Price: 80, Category: "Bread", Station: "tandoor", Available: true,
			IsVegetarian: true, PrepTimeMin: 5,
			Recipe: []menu.Ingredient{{InventoryItemID: "flour", Quantity: 0.15}},
		},
		{
			ID: "kahwa", Name: "Green Tea (Kahwa)", UrduName: "قہوہ",
			Price: 120, Category: "Beverages", Station: "counter", Available: true,
			IsVegetarian: true, PrepTimeMin: 5,
		},
	}

	log.Println("seeding menu...")
	for _, it := range items {
		if _, err := store.Upsert(ctx, it); err != nil {
			log.Printf("seed menu %s: %v", it.ID, err)
		}
	}
}
