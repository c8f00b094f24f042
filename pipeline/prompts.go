package pipeline

// Default prompts used when no custom prompt is configured. Deployments
// normally ship tuned prompt files and wire them in through configuration;
// these defaults describe the same contract the parsers expect.

// DefaultFilterPrompt is the system prompt for the batch filter pass. It
// pins the response to the results-array shape FilterBatch validates.
const DefaultFilterPrompt = `You are a legislative bill relevance filter. You will be given a JSON array of bills. For EACH bill, determine whether it is relevant to palliative care, hospice care, end-of-life care, or serious illness care policy.

Respond with ONLY a JSON object in this exact format:
{
  "results": [
    {"bill_identifier": "<bill_number>", "relevant": true/false, "reason": "brief explanation"}
  ]
}

Include one entry per bill, in the same order as the input. Do not include any text before or after the JSON.`

// DefaultAnalysisPrompt is the user prompt template for the analysis pass.
// The {data} placeholder is replaced with the formatted bill block, which
// keeps custom prompt files interchangeable with this default.
const DefaultAnalysisPrompt = `Analyze the following data and provide structured output.

Data:
{data}

Respond with a JSON object containing your analysis.`

// DefaultAnalysisSystemPrompt instructs the model to emit the structured
// verdict the analysis pass persists.
const DefaultAnalysisSystemPrompt = `You are an expert legislative analyst specializing in palliative care, hospice, and end-of-life care policy. Analyze the provided bill and extract structured insights.

Respond with ONLY valid JSON in the following format:
{
  "is_relevant": true/false,
  "relevance_reasoning": "why this bill does or does not affect palliative care",
  "summary": "brief summary of the bill",
  "bill_status": "current status if known",
  "legislation_type": "statute change, appropriation, resolution, study, or other",
  "categories": ["category1", "category2"],
  "tags": ["tag1", "tag2", "tag3"],
  "key_provisions": ["provision 1", "provision 2"],
  "palliative_care_impact": "how the bill affects palliative care delivery or access",
  "exclusion_check": {"is_excluded": true/false, "reason": "which exclusion applies, if any"},
  "special_flags": {
    "references_regulation": true/false,
    "regulation_details": "",
    "references_executive_order": true/false,
    "executive_order_details": "",
    "references_ballot_measure": true/false,
    "ballot_measure_details": ""
  }
}

Do not include any text before or after the JSON.`
