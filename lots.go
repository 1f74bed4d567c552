package binnaculum

// lot represents a single opening trade of a position, used for cost basis calculations.
//
// For long positions Cost is what was paid (commissions and fees included),
// for short positions it is what was received (net of commissions and fees).
type lot struct {
	Date     Date
	Quantity Quantity
	Cost     Money // Total cost of the lot
}

type lots []lot

// fifoCostOfSelling calculates the cost of closing a quantity of shares using FIFO.
// When the lots hold less than the quantity, only the available cost is returned.
func (l lots) fifoCostOfSelling(quantityToSell Quantity) Money {
	var costOfSoldShares Money

	for _, currentLot := range l {
		if currentLot.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			costOfSoldPortion := currentLot.Cost.Mul(quantityToSell).Div(currentLot.Quantity)
			costOfSoldShares = costOfSoldShares.Add(costOfSoldPortion)
			return costOfSoldShares
		}
		costOfSoldShares = costOfSoldShares.Add(currentLot.Cost)
		quantityToSell = quantityToSell.Sub(currentLot.Quantity)
	}
	return costOfSoldShares
}

// sell reduces the available lots by a given quantity to sell using the FIFO method.
func (l lots) sell(quantityToSell Quantity) lots {
	var remainingLots lots

	for _, currentLot := range l {
		if quantityToSell.IsZero() {
			remainingLots = append(remainingLots, currentLot)
			continue
		}

		if currentLot.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			costOfSoldPortion := currentLot.Cost.Mul(quantityToSell).Div(currentLot.Quantity)
			remainingLots = append(remainingLots, lot{
				Date:     currentLot.Date,
				Quantity: currentLot.Quantity.Sub(quantityToSell),
				Cost:     currentLot.Cost.Sub(costOfSoldPortion),
			})
			quantityToSell = Q(0)
		} else {
			quantityToSell = quantityToSell.Sub(currentLot.Quantity)
		}
	}
	return remainingLots
}

// split multiplies every lot quantity by factor. Lot costs are unchanged.
func (l lots) split(factor Quantity) lots {
	res := make(lots, 0, len(l))
	for _, currentLot := range l {
		currentLot.Quantity = currentLot.Quantity.Mul(factor)
		res = append(res, currentLot)
	}
	return res
}

func (l lots) quantity() Quantity {
	var q Quantity
	for _, currentLot := range l {
		q = q.Add(currentLot.Quantity)
	}
	return q
}

func (l lots) cost() Money {
	var c Money
	for _, currentLot := range l {
		c = c.Add(currentLot.Cost)
	}
	return c
}
