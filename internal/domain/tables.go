package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Product{},
	// Delivery
	&DeliveryOrder{},
	&DeliveryCourier{},
}
