package pricing

// DepositMultiplier is the share of a deposit line billed up front.
const DepositMultiplier = 0.5

// LineAmount computes the billed (Display) and pre-multiplier (Original) value of a row.
// Inputs are not validated; NaN propagates.
func LineAmount(row Row) Amount {
	base := row.Price * float64(row.Quantity)
	discounted := base * (1 - row.Discount/100)

	if row.PaymentType == Deposit && !row.ConvertToSubscription {
		return Amount{
			Display:  discounted * DepositMultiplier,
			Original: discounted,
		}
	}
	return Amount{Display: discounted, Original: discounted}
}

// Partition groups rows by payment type preserving input order within each group.
func Partition(rows []Row) Buckets {
	var b Buckets
	for _, row := range rows {
		switch row.PaymentType {
		case Subscription:
			b.Subscription = append(b.Subscription, row)
		case Deposit:
			b.Deposit = append(b.Deposit, row)
		case Full:
			b.Full = append(b.Full, row)
		default:
			b.Skipped = append(b.Skipped, row)
		}
	}
	return b
}

// Aggregate recomputes all totals from scratch. Rows skipped by Partition contribute nothing.
func Aggregate(rows []Row) Totals {
	b := Partition(rows)
	var t Totals
	for _, row := range b.Subscription {
		t.Subscription += LineAmount(row).Display
	}
	for _, row := range b.Deposit {
		amount := LineAmount(row)
		t.Deposit += amount.Display
		t.DepositOriginal += amount.Original
	}
	for _, row := range b.Full {
		t.Full += LineAmount(row).Display
	}
	t.Grand = t.Subscription + t.Deposit + t.Full
	return t
}
