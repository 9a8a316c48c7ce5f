package bot

const (
	msgWelcome = "👋 Hi! I'm the Deal Parser Bot.\n\n" +
		"I can help you submit deals! For standard submissions,\n" +
		"I prefer deals in the following format:\n" +
		"Partner:\n" +
		"GEO: (country codes)\n" +
		"Language:\n" +
		"Source:\n" +
		"Price:\n" +
		"Funnels\n\n" +
		"For bulk submission, send me deal strings in this format:\n" +
		"REGION-PARTNER-GEO-LANGUAGE-SOURCE-MODEL-CPA-CRG-CPL-FUNNELS-CR-DEDUCTIONLIMIT\n\n" +
		"Example:\n" +
		"TIER1-FTD Company-UK|IE|NL-Native-Facebook|Google-cpa_crg-1200-0.10-&-QuantumAI-&-0.05"

	msgHelp = "📝 Required Fields:\n" +
		"- Partner name\n" +
		"- GEO (country codes)\n" +
		"- Language\n" +
		"- Price (CPA+CRG or CPL)\n" +
		"- Source\n" +
		"- Funnels\n\n" +
		"🔎 Plus relevant pricing fields based on model:\n" +
		"- CPA/CRG: Both CPA and CRG required (usually parsed from price)\n" +
		"- CPA only: CPA required (usually parsed from price)\n" +
		"- CPL only: CPL required (usually parsed from price)\n" +
		"🤷🏾‍♂️ Optional fields:\n" +
		"- Region (TIER1, LATAM, etc) - usually parsed from GEO\n" +
		"- Pricing model (cpa_crg, cpa, cpl) - usually parsed from price\n" +
		"- CR\n" +
		"- Deduction limit\n\n" +
		"Commands: /start /help /format /cancel"

	msgFormatGuide = "📐 Bulk deal format\n\n" +
		"One deal per line, 12 fields separated by '-':\n" +
		"REGION-PARTNER-GEO-LANGUAGE-SOURCE-MODEL-CPA-CRG-CPL-FUNNELS-CR-DEDUCTIONLIMIT\n\n" +
		"Rules:\n" +
		"• REGION: TIER1, TIER2, TIER3, NORDICS, LATAM or BALTICS\n" +
		"• GEO, SOURCE and FUNNELS take several values joined with '|'\n" +
		"• MODEL: cpa, cpa_crg or cpl\n" +
		"• CPA, CRG, CPL and DEDUCTIONLIMIT are numbers or '&' when absent\n" +
		"• CRG and DEDUCTIONLIMIT above 1 are read as percentages (10 = 0.10)\n" +
		"• At most 50 deals per message\n\n" +
		"Examples:\n" +
		"TIER1-FTD Company-UK|IE|NL-Native-Facebook|Google-cpa_crg-1200-0.10-&-QuantumAI-&-0.05\n" +
		"LATAM-Acme-BR-pt-TikTok-cpa-900-&-&-Bitcoin Era-8%-&"

	msgInvalidFormat = "❌ Invalid message format. Please send either:\n" +
		"1. Formatted deals (TIER1-PARTNER-GEO-...)\n" +
		"2. Detailed deal descriptions"

	msgUnknownCommand = "🤔 Unknown command. Try /help."
	msgCancelled      = "🗑️ Cancelled. Any pending deals were discarded."

	msgStartingAnalysis = "🔄 Starting deal analysis...\nPlease wait while I process your deals."

	msgNoDealsFound = "❌ I couldn't find any deals in that message.\n" +
		"Start each deal with \"Partner:\" and include a GEO and a price, or send /format for the bulk format."

	msgSessionExpired = "⌛ Session expired. Please send the deals again."
	msgUnknownAction  = "Unknown action"
	msgRejected       = "❌ All deals rejected. Nothing was submitted."
	msgNothingToSend  = "No complete deals to submit yet"

	msgSubmitFailed = "❌ An error occurred while processing your deals.\n" +
		"Please check the format and try again."
)
