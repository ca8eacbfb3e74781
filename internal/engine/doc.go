// Package engine implements continuous volume-ceiling enforcement.
//
// One Engine owns the device registry and the settings store behind a single
// mutex: backend notifications, periodic rescans, and facade commands all
// serialize through it, so no volume event is ever evaluated against a
// half-applied ceiling. Corrections the engine issues itself are tracked as
// pending markers so the notification they echo back does not trigger a
// second evaluation loop.
package engine
