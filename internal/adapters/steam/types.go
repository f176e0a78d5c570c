package steam

// Estructuras raw de las respuestas de Steam. Se mapean a domain en mapping.go.

type rsaKeyResponse struct {
	Success      bool   `json:"success"`
	PublicKeyMod string `json:"publickey_mod"`
	PublicKeyExp string `json:"publickey_exp"`
	Timestamp    string `json:"timestamp"`
}

type loginResponse struct {
	Success            bool   `json:"success"`
	RequiresTwoFactor  bool   `json:"requires_twofactor"`
	LoginComplete      bool   `json:"login_complete"`
	EmailAuthNeeded    bool   `json:"emailauth_needed"`
	CaptchaNeeded      bool   `json:"captcha_needed"`
	Message            string `json:"message"`
	TransferParameters struct {
		SteamID     string `json:"steamid"`
		TokenSecure string `json:"token_secure"`
		Auth        string `json:"auth"`
		WebCookie   string `json:"webcookie"`
	} `json:"transfer_parameters"`
}

type rawAsset struct {
	AppID     int    `json:"appid"`
	ContextID string `json:"contextid"`
	AssetID   string `json:"assetid"`
	Amount    string `json:"amount"`
}

type rawOffer struct {
	TradeOfferID   string     `json:"tradeofferid"`
	AccountIDOther uint32     `json:"accountid_other"`
	Message        string     `json:"message"`
	State          int        `json:"trade_offer_state"`
	ItemsToGive    []rawAsset `json:"items_to_give"`
	ItemsToReceive []rawAsset `json:"items_to_receive"`
	IsOurOffer     bool       `json:"is_our_offer"`
	TimeCreated    int64      `json:"time_created"`
	TimeUpdated    int64      `json:"time_updated"`
	TradeID        string     `json:"tradeid"`
}

type offersResponse struct {
	Response struct {
		TradeOffersReceived []rawOffer `json:"trade_offers_received"`
	} `json:"response"`
}

type offerResponse struct {
	Response struct {
		Offer *rawOffer `json:"offer"`
	} `json:"response"`
}

type acceptResponse struct {
	TradeID                 string `json:"tradeid"`
	NeedsMobileConfirmation bool   `json:"needs_mobile_confirmation"`
	NeedsEmailConfirmation  bool   `json:"needs_email_confirmation"`
	StrError                string `json:"strError"`
}

type rawTradeAsset struct {
	AppID        int    `json:"appid"`
	ContextID    string `json:"contextid"`
	AssetID      string `json:"assetid"`
	Amount       string `json:"amount"`
	NewAssetID   string `json:"new_assetid"`
	NewContextID string `json:"new_contextid"`
}

type tradeStatusResponse struct {
	Response struct {
		Trades []struct {
			TradeID        string          `json:"tradeid"`
			Status         int             `json:"status"`
			TimeInit       int64           `json:"time_init"`
			AssetsReceived []rawTradeAsset `json:"assets_received"`
			AssetsGiven    []rawTradeAsset `json:"assets_given"`
		} `json:"trades"`
	} `json:"response"`
}

type confirmationListResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Conf    []struct {
		ID        string `json:"id"`
		Nonce     string `json:"nonce"`
		CreatorID string `json:"creator_id"`
		Type      int    `json:"type"`
	} `json:"conf"`
}

type confirmationOpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
