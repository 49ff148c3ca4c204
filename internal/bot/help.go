package bot

import "context"

const helpText = `Commands, arguments, and descriptions:
*/order*: Execute order of specified type, limit/stop price as needed, <type> <side> <qty> <symbol> <time_in_force> <(optional) limit_price> <(optional) stop_price>
*/list*: Lists things, <'positions'/'orders'/'streams'>
*/clear*: Clears things, <'positions'/'orders'>
*/cancel_order*: Cancels an order by id, <order_id>
*/cancel_recent_order*: Cancels the most recent open order, no args
*/subscribe_streaming*: Subscribe to streaming channels, <[channels]>
*/unsubscribe_streaming*: Unsubscribe from streaming channels, <[channels]>
*/account_info*: Gets basic account info, no args
*/get_price*: Gets the price(s) of the given symbol(s), <[symbol(s)]>
*/get_price_polygon*: Consolidated-feed bid/ask of given symbol(s), <[symbols]>
*/help*: Provides a description of each command, no args`

func runHelp(_ context.Context, _ *Dispatcher, _ []string) (string, error) {
	return helpText, nil
}
