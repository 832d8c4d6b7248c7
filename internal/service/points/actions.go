package points

// ActionDef is one row of the static action table: the signed amount a
// named action is worth and its default ledger description.
type ActionDef struct {
	Points      int
	Description string
}

// actionTable fixes how much each named action is worth. Amounts are
// established statically; callers decide when an action fires, never how
// much it pays. Negative amounts are penalties.
var actionTable = map[string]ActionDef{
	// Profile and onboarding
	"profile_completed":    {50, "Completed profile"},
	"profile_photo_added":  {10, "Added a profile photo"},
	"bio_completed":        {10, "Wrote a bio"},
	"interests_added":      {10, "Added interests"},
	"onboarding_completed": {25, "Finished onboarding"},
	"email_verified":       {10, "Verified email address"},
	"phone_verified":       {25, "Verified phone number"},
	"id_verified":          {100, "Verified identity"},

	// Events
	"event_attended":       {20, "Attended an event"},
	"event_checked_in":     {15, "Checked in at an event"},
	"first_event_attended": {50, "Attended a first event"},
	"event_rsvp":           {5, "RSVPed to an event"},
	"event_shared":         {5, "Shared an event"},
	"event_created":        {10, "Created an event"},
	"event_hosted":         {50, "Hosted an event"},
	"first_event_hosted":   {100, "Hosted a first event"},
	"event_feedback_given": {10, "Gave event feedback"},
	"event_photo_uploaded": {5, "Uploaded an event photo"},

	// Social graph
	"connection_request_sent": {2, "Sent a connection request"},
	"connection_accepted":     {10, "Connection accepted"},
	"first_connection":        {25, "Made a first connection"},
	"group_joined":            {5, "Joined a group"},
	"group_created":           {15, "Created a group"},

	// Referrals
	"referral_sent":       {5, "Sent a referral invite"},
	"referral_activated":  {100, "Referral activated"},
	"referral_subscribed": {150, "Referral became a subscriber"},

	// Trust
	"trust_rating_given":    {5, "Rated a trust moment"},
	"trust_rating_received": {10, "Received a positive trust rating"},
	"profile_verified":      {75, "Profile verified"},

	// Engagement
	"feedback_submitted":     {15, "Submitted feedback"},
	"bug_reported":           {20, "Reported a bug"},
	"survey_completed":       {20, "Completed a survey"},
	"app_review_left":        {30, "Left an app review"},
	"daily_check_in":         {5, "Daily check-in"},
	"weekly_streak_kept":     {25, "Kept a weekly streak"},
	"community_post_created": {5, "Posted in the community"},
	"community_comment":      {2, "Commented in the community"},

	// Commerce
	"subscription_started": {100, "Started a subscription"},
	"subscription_renewed": {50, "Renewed a subscription"},
	"marketplace_purchase": {20, "Made a marketplace purchase"},

	// Penalties
	"event_cancelled_late": {-15, "Cancelled an RSVP late"},
	"event_no_show":        {-25, "No-show at an event"},
	"spam_warning":         {-20, "Received a spam warning"},
	"content_removed":      {-30, "Had content removed"},
	"reported_confirmed":   {-50, "Confirmed user report"},
}

// LookupAction returns the definition for a named action.
func LookupAction(action string) (ActionDef, bool) {
	def, ok := actionTable[action]
	return def, ok
}
