// Package peripheral implements a BLE MIDI peripheral engine.
//
// The engine owns the advertising lifecycle and the table of subscribed centrals:
//   - publishes the BLE MIDI GATT service, then advertises it once the stack confirms
//   - tracks centrals as they subscribe and unsubscribe
//   - fans encoded MIDI packets out to every subscribed central
//
// The Bluetooth stack is reached only through the Stack interface. Everything the stack
// reports arrives as an Event and, together with the public commands, is handled by a single
// goroutine in posting order. Observers read state through snapshot getters or consume
// Notifications.
package peripheral
