package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/garage"
	"github.com/frontandrew/garage/internal/pkg/logger"
)

func main() {
	fmt.Println("=========================================")
	fmt.Println("Garage Client Test")
	fmt.Println("=========================================")
	fmt.Println()

	baseURL := getEnv("GARAGE_API_URL", "http://localhost:8080")
	token := os.Getenv("GARAGE_API_TOKEN")
	if token == "" {
		fmt.Println("❌ GARAGE_API_TOKEN is required (login via /api/v1/auth/login first)")
		os.Exit(1)
	}

	client := garage.NewClient(baseURL, 10*time.Second)
	client.SetToken(token)

	repo := garage.NewRepository(client, logger.NewDevelopment())
	repo.Subscribe(func(e garage.Event) {
		fmt.Printf("   event: %s %s\n", e.Type, e.VehicleID)
	})

	ctx := context.Background()

	// Test 1: загрузка гаража
	fmt.Println("Test 1: LoadAll")
	if err := repo.LoadAll(ctx); err != nil {
		fmt.Printf("❌ LoadAll failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Loaded %d vehicles\n", repo.Len())
	fmt.Println()

	// Test 2: создание автомобиля
	fmt.Println("Test 2: Create")
	v, err := repo.Create(ctx, domain.Draft{
		Type:  domain.VehicleTypeCar,
		Model: "Smoke Test Car",
		Plate: "tst 0001",
	})
	if err != nil {
		fmt.Printf("❌ Create failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Created vehicle %s\n", v.ID)
	fmt.Println()

	// Test 3: локальные операции
	fmt.Println("Test 3: Interact")
	for _, action := range []garage.Action{garage.ActionPowerOn, garage.ActionAccelerate, garage.ActionBrake} {
		if err := repo.Interact(v.ID, action); err != nil {
			fmt.Printf("❌ %s failed: %v\n", action, err)
			os.Exit(1)
		}
	}
	got, _ := repo.Get(v.ID)
	fmt.Printf("✅ Interactions done, speed=%.0f\n", got.Speed)
	fmt.Println()

	// Test 4: запись обслуживания
	fmt.Println("Test 4: AddMaintenance")
	m := domain.NewMaintenance("2024-01-15", "Smoke test service", 1, "")
	if err := repo.AddMaintenance(ctx, v.ID, m); err != nil {
		fmt.Printf("❌ AddMaintenance failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Maintenance recorded")
	fmt.Println()

	// Test 5: удаление
	fmt.Println("Test 5: Remove")
	if err := repo.Remove(ctx, v.ID, true); err != nil {
		fmt.Printf("❌ Remove failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Vehicle removed")
	fmt.Println()

	fmt.Println("=========================================")
	fmt.Println("All tests passed")
	fmt.Println("=========================================")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
