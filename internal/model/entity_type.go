package model

import "strings"

// EntityType names a record collection (lowercase tag, e.g. "leads").
type EntityType string

// Built-in entity types.
const (
	EntityLeads            EntityType = "leads"
	EntityDeals            EntityType = "deals"
	EntityAccounts         EntityType = "accounts"
	EntityContacts         EntityType = "contacts"
	EntityInvoices         EntityType = "invoices"
	EntityQuotes           EntityType = "quotes"
	EntitySubscriptions    EntityType = "subscriptions"
	EntityExpenses         EntityType = "expenses"
	EntityBankTransactions EntityType = "banktransactions"
	EntityCommunications   EntityType = "communications"
	EntityTasks            EntityType = "tasks"
	EntityTickets          EntityType = "tickets"
	EntityJobs             EntityType = "jobs"
	EntityEquipment        EntityType = "equipment"
	EntityProducts         EntityType = "products"
	EntityServices         EntityType = "services"
)

// BuiltinEntityTypes lists every collection registered by default, in a
// stable order.
var BuiltinEntityTypes = []EntityType{
	EntityLeads,
	EntityDeals,
	EntityAccounts,
	EntityContacts,
	EntityInvoices,
	EntityQuotes,
	EntitySubscriptions,
	EntityExpenses,
	EntityBankTransactions,
	EntityCommunications,
	EntityTasks,
	EntityTickets,
	EntityJobs,
	EntityEquipment,
	EntityProducts,
	EntityServices,
}

// documentEntityTypes carry line items and derived totals.
var documentEntityTypes = map[EntityType]bool{
	EntityInvoices:      true,
	EntityQuotes:        true,
	EntitySubscriptions: true,
}

// NormalizeEntityType lowercases and trims a type tag so that "Leads" and
// "leads" name the same collection.
func NormalizeEntityType(s string) EntityType {
	return EntityType(strings.ToLower(strings.TrimSpace(s)))
}

// IsBuiltin reports whether t is one of the base-schema entity types.
func IsBuiltin(t EntityType) bool {
	for _, b := range BuiltinEntityTypes {
		if b == t {
			return true
		}
	}
	return false
}

// IsDocument reports whether records of type t carry line items whose
// totals are re-derived on every write.
func IsDocument(t EntityType) bool {
	return documentEntityTypes[t]
}
