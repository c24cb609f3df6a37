package store

import (
	"context"
	"slices"
	"strings"

	"automap-generator/automap"
	"automap-generator/warehouse"
)

// MappingProfile declares how store types become warehouse DTOs.
type MappingProfile struct {
	automap.Profile
}

// Configure implements automap.Profiler.
func (p *MappingProfile) Configure(cfg *automap.Config) {
	automap.Map[Address, warehouse.Address](cfg).Reverse()

	automap.Map[Customer, warehouse.Customer](cfg).
		ForField(warehouse.Customer{}.FullName, func(c *Customer) any {
			return strings.TrimSpace(c.FirstName + " " + c.LastName)
		}).
		ForFieldAsync(warehouse.Customer{}.Segment, func(ctx context.Context, c *Customer) (any, error) {
			return segmentOf(ctx, c)
		}).
		Reverse()

	automap.Map[OrderItem, warehouse.OrderItem](cfg).
		ForField(warehouse.OrderItem{}.LineTotal, lineTotal).
		Reverse()

	automap.Map[Order, warehouse.Order](cfg).
		ForField(warehouse.Order{}.Status, func(o *Order) any {
			return strings.ToLower(string(o.Status))
		}).
		ForField(warehouse.Order{}.TotalCents, func(o *Order) any {
			var total int64
			for i := range o.Items {
				total += int64(o.Items[i].Quantity) * o.Items[i].UnitPrice
			}

			return total
		}).
		Reverse()

	automap.Map[Batch, warehouse.Batch](cfg).Reverse()
}

func lineTotal(item *OrderItem) any {
	return int64(item.Quantity) * item.UnitPrice
}

// segmentOf classifies a customer. It stands in for a lookup against a
// CRM service.
func segmentOf(ctx context.Context, c *Customer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case !c.IsActive:
		return "dormant", nil
	case slices.Contains(c.Tags, "vip"):
		return "vip", nil
	default:
		return "regular", nil
	}
}
