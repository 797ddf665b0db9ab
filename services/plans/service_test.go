package plans

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"embertv/internal/jsonstore"
	"embertv/models"
)

func newTestService() *Service {
	return NewService(jsonstore.New(afero.NewMemMapFs()), "data")
}

func TestSeedsDefaultPlans(t *testing.T) {
	svc := newTestService()

	plans, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(plans) != 4 {
		t.Fatalf("expected 4 seeded plans, got %d", len(plans))
	}
	annual := plans[3]
	if annual.Name != "Annual Pass" || !annual.Featured || annual.OriginalPrice != 240 {
		t.Errorf("unexpected annual plan: %+v", annual)
	}
}

func TestSaveValidation(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Save(models.Plan{Days: 7, Price: 1}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
	if _, err := svc.Save(models.Plan{Name: "x", Days: 0, Price: 1}); !errors.Is(err, ErrInvalidDays) {
		t.Errorf("expected ErrInvalidDays, got %v", err)
	}
	if _, err := svc.Save(models.Plan{Name: "x", Days: 1, Price: -1}); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := svc.Save(models.Plan{ID: 99, Name: "x", Days: 1, Price: 1}); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	svc := newTestService()

	plan, err := svc.Save(models.Plan{Name: "Day Pass", Days: 1, Price: 0.99})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if plan.ID != 5 {
		t.Errorf("expected id 5 after seeds, got %d", plan.ID)
	}
	if plan.Devices != 1 {
		t.Errorf("devices should default to 1, got %d", plan.Devices)
	}

	plan.Price = 1.49
	plan.OriginalPrice = 2.99
	updated, err := svc.Save(plan)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Price != 1.49 {
		t.Errorf("unexpected update: %+v", updated)
	}

	if err := svc.Delete(plan.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(plan.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
	// Unknown id is a no-op.
	if err := svc.Delete(plan.ID); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
}

func TestSalesLedger(t *testing.T) {
	svc := newTestService()

	viewer := models.Viewer{ID: 3, Username: "alice"}
	plan, err := svc.Get(2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	sale, err := svc.RecordSale(viewer, plan, "PAYPAL-1")
	if err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if sale.ID != 1 || sale.Viewer != "alice" || sale.Plan != "Weekly Pass" {
		t.Errorf("unexpected sale: %+v", sale)
	}

	if _, err := svc.RecordSale(viewer, plan, "PAYPAL-2"); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	sales, err := svc.Sales()
	if err != nil {
		t.Fatalf("Sales failed: %v", err)
	}
	if len(sales) != 2 || sales[1].ID != 2 {
		t.Errorf("unexpected ledger: %+v", sales)
	}
}
