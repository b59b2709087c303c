package catalog

// Messages holds the fixed replies. Values containing verbs are passed to
// fmt.Sprintf.
type Messages struct {
	MainMenu            string `yaml:"main_menu"`
	WhatNext            string `yaml:"what_next"`
	MapButton           string `yaml:"map_button"`
	MapLink             string `yaml:"map_link"`
	Stopped             string `yaml:"stopped"`
	FlowIntro           string `yaml:"flow_intro"`
	IdleHelp            string `yaml:"idle_help"`
	GenericError        string `yaml:"generic_error"`
	RetryLater          string `yaml:"retry_later"`
	Conflict            string `yaml:"conflict"`
	UnknownAction       string `yaml:"unknown_action"`
	ScenarioSelected    string `yaml:"scenario_selected"`
	MenuSelected        string `yaml:"menu_selected"`
	CancelSelected      string `yaml:"cancel_selected"`
	CancelReply         string `yaml:"cancel_reply"`
	ChooseScenario      string `yaml:"choose_scenario"`
	OtherScenario       string `yaml:"other_scenario"`
	NoButtons           string `yaml:"no_buttons"`
	NoText              string `yaml:"no_text"`
	CancelButton        string `yaml:"cancel_button"`
	UseCategoryButtons  string `yaml:"use_category_buttons"`
	UnknownCategory     string `yaml:"unknown_category"`
	ChooseCategoryFirst string `yaml:"choose_category_first"`

	AttributesHeader      string `yaml:"attributes_header"`
	AnswerTooShort        string `yaml:"answer_too_short"`
	AnswerMissing         string `yaml:"answer_missing"`
	AnswerOptionalMissing string `yaml:"answer_optional_missing"`
	SkipNote              string `yaml:"skip_note"`
	HintPrefix            string `yaml:"hint_prefix"`

	PhotoHeader       string `yaml:"photo_header"`
	PhotoInstructions string `yaml:"photo_instructions"`
	PhotoProgress     string `yaml:"photo_progress"`
	PhotoSkipped      string `yaml:"photo_skipped"`
	PhotoNone         string `yaml:"photo_none"`
	PhotoSaved        string `yaml:"photo_saved"`
	PhotoMissing      string `yaml:"photo_missing"`
	PhotoRejected     string `yaml:"photo_rejected"`
	PhotoLimit        string `yaml:"photo_limit"`
	PhotoCount        string `yaml:"photo_count"`
	PhotoDropped      string `yaml:"photo_dropped"`

	LocationHeader  string `yaml:"location_header"`
	LocationSkipped string `yaml:"location_skipped"`
	LocationMissing string `yaml:"location_missing"`

	SecretsHeader string `yaml:"secrets_header"`
	SecretsHints  string `yaml:"secrets_hints"`
	SecretsFooter string `yaml:"secrets_footer"`

	ConfirmHeader      string `yaml:"confirm_header"`
	SummaryCategory    string `yaml:"summary_category"`
	SummaryAttributes  string `yaml:"summary_attributes"`
	SummaryPhotos      string `yaml:"summary_photos"`
	SummaryCoordinates string `yaml:"summary_coordinates"`
	SummaryArea        string `yaml:"summary_area"`
	SummaryNoCoords    string `yaml:"summary_no_coordinates"`
	SummaryPlace       string `yaml:"summary_place"`
	SummaryNone        string `yaml:"summary_none"`
	Skipped            string `yaml:"skipped"`
	PublishButton      string `yaml:"publish_button"`
	EditButton         string `yaml:"edit_button"`
	MenuButton         string `yaml:"menu_button"`
	Unavailable        string `yaml:"unavailable"`
	Publishing         string `yaml:"publishing"`
	Published          string `yaml:"published"`
	MatchLine          string `yaml:"match_line"`
	NoMatches          string `yaml:"no_matches"`
	PublishFailed      string `yaml:"publish_failed"`
	EditSelected       string `yaml:"edit_selected"`

	DescriptionDetails  string `yaml:"description_details"`
	DescriptionLocation string `yaml:"description_location"`
	Untitled            string `yaml:"untitled"`
}
