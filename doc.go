// Package binnaculum provides the domain model of a personal investment
// tracker: brokers and banks, their accounts, the movements recorded in them,
// and the daily snapshots summarizing their performance.
//
// The core functionalities include:
//   - Records: broker movements, stock trades, option trades, dividends and
//     dividend taxes, bundled as Movements, and bank account movements.
//   - Primitives: Money never mixes currencies, Quantity and Date/DateTime
//     use canonical textual forms.
//   - Calculations: share holdings with split adjustments, realized gains,
//     option lifecycle (open, closed, expired, assigned) and ticker weights.
//   - Snapshots: the cumulative figures of tickers, broker accounts, brokers,
//     bank accounts and banks on a given day, and the Store they live in.
//
// Statement import lives in package tastytrade, snapshot maintenance in
// package snapshot, storage in storage/sqlite and storage/memory. The `bnc`
// command-line tool ties them together.
package binnaculum
