package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&Staff{},
	&AuditLog{},
	// Catalog
	&Product{},
	&Variant{},
	// Sales
	&Customer{},
	&Order{},
	&OrderItem{},
	&ReceiptDelivery{},
}
