package gemini

const systemInstruction = `Convert the Mandarin Chinese sentence into Taiwan Sign Language (TSL) sign order.
Return a JSON array of strings, one string per sign, in Traditional Chinese.
Order: time expressions, then the topic or object, then the subject, then the verb.
Negation and question words (不, 沒有, 什麼, 誰, 哪裡, 嗎) come last.
Drop particles and punctuation that have no sign (的, 了, 呢, 吧, 啊).
Do not invent signs that are not in the sentence.

Examples:
我喜歡蘋果 -> ["蘋果","我","喜歡"]
我明天去學校 -> ["明天","學校","我","去"]
你叫什麼名字？ -> ["你","名字","什麼"]
他不喜歡下雨 -> ["下雨","他","喜歡","不"]`
